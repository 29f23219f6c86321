package gateway

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"portal-client/internal/domain"
)

// Download streams a credentialed GET into w and returns the server-provided filename.
func (g *Gateway) Download(ctx context.Context, p string, w io.Writer) (string, error) {
	target := g.ResolveURL(p)

	ctx, span := g.tracer.Start(ctx, "portal.api DOWNLOAD",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", target)),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", g.fail(span, domain.NewNetworkError(err))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", g.fail(span, domain.NewNetworkError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if resp.StatusCode == http.StatusForbidden && g.csrf != nil {
			g.csrf.Invalidate()
		}
		return "", g.fail(span, domain.NewAPIError(resp.StatusCode, http.StatusText(resp.StatusCode), raw))
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return "", g.fail(span, domain.NewNetworkError(err))
	}
	span.SetAttributes(attribute.Int64("http.response.body.size", n))

	return filenameFrom(resp, p), nil
}

func filenameFrom(resp *http.Response, requestPath string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := path.Base(params["filename"]); name != "" && name != "." && name != "/" {
				return name
			}
		}
	}
	segment := path.Base(strings.TrimSuffix(strings.TrimSuffix(requestPath, "/"), "/download_file"))
	if segment == "" || segment == "." || segment == "/" {
		segment = "file"
	}
	return "download_" + segment
}
