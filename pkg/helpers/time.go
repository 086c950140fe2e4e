package helpers

import (
	"context"
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/go-ddd-ecommerce/pkg/mailer/templates"
)

const localLayout = "02 January 2006, 15:04 MST"

// LocalizeTimesIfPossible rewrites the display times in data to the timezone of
// data["IP"] when it can be resolved.
func LocalizeTimesIfPossible(ctx context.Context, resolver mailtpl.GeoResolver, data map[string]any) {
	ipVal, ok := data["IP"]
	if !ok || fmt.Sprintf("%v", ipVal) == "" {
		return
	}
	g, err := resolver.Lookup(ctx, fmt.Sprintf("%v", ipVal))
	if err != nil || strings.TrimSpace(g.Timezone) == "" {
		return
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return
	}
	if _, ok := data["Location"]; !ok || fmt.Sprintf("%v", data["Location"]) == "" {
		data["Location"] = mailtpl.FormatGeo(g)
	}
	if t, ok := parseTimeAny(data["ExpiresAt"]); ok {
		data["ExpiresAtText"] = t.In(loc).Format(localLayout)
	}
	if t, ok := parseTimeAny(data["TimeAt"]); ok {
		data["Time"] = t.In(loc).Format(localLayout)
	}
}

func parseTimeAny(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	s := fmt.Sprintf("%v", v)
	for _, l := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05 -0700 MST"} {
		if t, err := time.Parse(l, s); err == nil && !t.IsZero() {
			return t, true
		}
	}
	return time.Time{}, false
}
