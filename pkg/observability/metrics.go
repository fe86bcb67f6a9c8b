package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes application metrics to CloudWatch. Data points are
// buffered in memory and flushed in batches to stay within the PutMetricData
// request limits.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// CloudWatch caps PutMetricData at 1000 datums per call; flush well before that
const flushThreshold = 20

// NewMetrics creates a metrics instance publishing to the given namespace
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// Count records a count metric with optional dimension
func (m *Metrics) Count(name string, value float64, dimensions ...types.Dimension) {
	m.record(types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dimensions,
	})
}

// Duration records a duration metric in milliseconds
func (m *Metrics) Duration(name string, d time.Duration, dimensions ...types.Dimension) {
	m.record(types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dimensions,
	})
}

// Gauge records an arbitrary value metric
func (m *Metrics) Gauge(name string, value float64, dimensions ...types.Dimension) {
	m.record(types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       types.StandardUnitNone,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dimensions,
	})
}

// Dimension builds a CloudWatch dimension
func Dimension(name, value string) types.Dimension {
	return types.Dimension{
		Name:  aws.String(name),
		Value: aws.String(value),
	}
}

func (m *Metrics) record(datum types.MetricDatum) {
	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	shouldFlush := len(m.buffer) >= flushThreshold
	m.mu.Unlock()

	if shouldFlush {
		// Best effort; a failed flush drops the batch rather than blocking
		// the pipeline.
		m.Flush(context.Background())
	}
}

// Flush publishes all buffered data points to CloudWatch
func (m *Metrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: batch,
	})
	return err
}
