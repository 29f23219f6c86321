package gateway

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
)

// Get sends a GET.
func (g *Gateway) Get(ctx context.Context, path string) (*domain.Result, error) {
	return g.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodGet})
}

// Post sends a POST with an optional JSON body.
func (g *Gateway) Post(ctx context.Context, path string, data any) (*domain.Result, error) {
	return g.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodPost, JSON: data})
}

// Put sends a PUT with an optional JSON body.
func (g *Gateway) Put(ctx context.Context, path string, data any) (*domain.Result, error) {
	return g.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodPut, JSON: data})
}

// Patch sends a PATCH with an optional JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, data any) (*domain.Result, error) {
	return g.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodPatch, JSON: data})
}

// Delete sends a DELETE.
func (g *Gateway) Delete(ctx context.Context, path string) (*domain.Result, error) {
	return g.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodDelete})
}

// Upload sends a multipart POST.
func (g *Gateway) Upload(ctx context.Context, path string, body *domain.MultipartBody) (*domain.Result, error) {
	return g.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodPost, Multipart: body})
}
