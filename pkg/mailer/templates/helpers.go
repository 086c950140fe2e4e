package templates

import (
	"context"
	"strings"
	"time"

	"github.com/oksasatya/go-ddd-ecommerce/config"
)

const timeLayout = "02 January 2006, 15:04"

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format(timeLayout)
	}
}

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format(timeLayout)
	}
}

func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string) Option {
	return func(d *EmailData) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		if g, err := r.Lookup(ctx, ip); err == nil {
			if loc := FormatGeo(g); loc != "" {
				d.Location = loc
			}
		}
	}
}

// NewBaseEmailData fills the shared fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
		ShopURL:    cfg.ShopURL,
		ResetURL:   cfg.ResetPasswordURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, opts...))
}

func NewForgotPasswordData(cfg *config.Config, name, email, resetURL string, ttl time.Duration, opts ...Option) map[string]any {
	opts = append([]Option{WithResetURL(resetURL), WithExpiresIn(ttl)}, opts...)
	return ToMap(NewBaseEmailData(cfg, ForgotPassword, name, email, opts...))
}

func NewPasswordChangedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, PasswordChanged, name, email, opts...))
}
