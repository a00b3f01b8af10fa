package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultQueryTimeout = 5 * time.Second
	DefaultDraftTTL     = 30 * time.Minute
)

// Options carries the knobs shared by the services.
type Options struct {
	QueryTimeout time.Duration
	DraftTTL     time.Duration
	Phone        PhoneRule
	Log          *logrus.Logger
}

func DefaultOptions() Options {
	return Options{
		QueryTimeout: DefaultQueryTimeout,
		DraftTTL:     DefaultDraftTTL,
		Phone:        DefaultPhoneRule(),
		Log:          logrus.StandardLogger(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = d.QueryTimeout
	}
	if o.DraftTTL <= 0 {
		o.DraftTTL = d.DraftTTL
	}
	if o.Phone.NationalDigits <= 0 {
		o.Phone = d.Phone
	}
	if o.Log == nil {
		o.Log = d.Log
	}
	return o
}

// bounded caps a read so that a slow store surfaces as QUERY_FAILED rather
// than hanging or looking like an empty result.
func (o Options) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.QueryTimeout)
}
