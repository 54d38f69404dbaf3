package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the Pushgateway job name DittoSync pushes under.
const Job = "dittosync"

var errDisabled = errors.New("metrics are not enabled")

// WriteTextfile writes the global registry to path in the text exposition
// format, for pickup by node_exporter's textfile collector.
//
// The file is written atomically (temp file and rename).
func WriteTextfile(path string) error {
	if !IsEnabled() {
		return errDisabled
	}
	return writeTextfile(path, GetRegistry())
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Push sends the global registry to the Pushgateway at url, grouped by
// instance.
func Push(ctx context.Context, url, instance string) error {
	if !IsEnabled() {
		return errDisabled
	}
	return pushTo(ctx, url, instance, GetRegistry())
}

func pushTo(ctx context.Context, url, instance string, g prometheus.Gatherer) error {
	pusher := push.New(url, Job).Gatherer(g)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
