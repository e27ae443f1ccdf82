package domain

import (
	"context"
	"time"
)

// HitTimeLayout is the timestamp format the stats service expects.
const HitTimeLayout = "2006-01-02 15:04:05"

// Hit is one recorded access to a public endpoint.
type Hit struct {
	App       string    `json:"app"`
	URI       string    `json:"uri"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"-"`
}

// HitReporter sends hits to the stats service. Reports are best-effort.
type HitReporter interface {
	Report(ctx context.Context, hit Hit) error
}
