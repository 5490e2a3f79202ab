package apiclient

import (
	"context"

	"easybake/internal/domain"
)

type localeKey struct{}

// WithLocale attaches the request locale sent as Accept-Language.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, NormalizeLocale(locale))
}

// LocaleFrom returns the locale attached to ctx, defaulting to English.
func LocaleFrom(ctx context.Context) string {
	if l, ok := ctx.Value(localeKey{}).(string); ok && l != "" {
		return l
	}
	return domain.LocaleEN
}

// NormalizeLocale maps anything other than Arabic to English.
func NormalizeLocale(l string) string {
	if len(l) >= 2 && (l[:2] == "ar" || l[:2] == "AR") {
		return domain.LocaleAR
	}
	return domain.LocaleEN
}
