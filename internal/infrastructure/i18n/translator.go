package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the locales the catalog carries, default first.
var Supported = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(Supported)

// zh holds the Chinese rendering of every user-facing message.
var zh = map[string]string{
	"Successfully logged in":                                   "登录成功",
	"Invalid email or password":                                "邮箱或密码错误",
	"CSRF token error. Please refresh the page and try again.": "CSRF 令牌错误，请刷新页面后重试。",
	"Too many login attempts. Please try again later.":         "登录尝试次数过多，请稍后再试。",
	"Login failed. Please try again.":                          "登录失败，请重试。",
	"Account created successfully":                             "账户创建成功",
	"Registration failed":                                      "注册失败",
	"This email is already used":                               "该邮箱已被使用",
	"Something went wrong":                                     "出现错误",
	"Logged out successfully":                                  "已成功退出登录",
	"Your session has expired":                                 "您的会话已过期",
	"Password updated":                                         "密码已更新",
	"Invalid current password":                                 "当前密码无效",
	"Password is too weak":                                     "密码强度太弱",
	"Failed to update password":                                "密码更新失败",
	"You are not authorized to update this password":           "您无权更新此密码",
	"Your account has been deleted":                            "您的账户已被删除",
	"You are not authorized to delete this account":            "您无权删除此账户",
	"You are not authorized to update this account":            "您无权更新此账户",
	"Account updated":                                          "账户已更新",
	"An email has been sent to reset your password":            "重置密码的邮件已发送",
	"Your password has been reset":                             "您的密码已重置",
	"Invalid or expired token.":                                "令牌无效或已过期。",
	"Download failed":                                          "下载失败",
	"Not logged in":                                            "未登录",
}

// Translator renders message keys in one locale. Unknown keys are returned unchanged.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for the closest supported match of locale.
func New(locale string) *Translator {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range zh {
		_ = builder.SetString(language.Chinese, key, text)
		_ = builder.SetString(language.English, key, key)
	}

	tag := Match(locale)
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// Match picks the supported locale closest to locale, defaulting to English.
func Match(locale string) language.Tag {
	desired, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(desired) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(desired...)
	return Supported[idx]
}

// Locale reports the active locale.
func (t *Translator) Locale() language.Tag {
	return t.tag
}

// T translates key.
func (t *Translator) T(key string) string {
	if key == "" {
		return ""
	}
	return t.printer.Sprintf(message.Key(key, key))
}
