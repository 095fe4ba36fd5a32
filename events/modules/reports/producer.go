// Package reports handles Kafka event production for bug report lifecycle events.
package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/bughive/triage-backend/model"
)

// ReportProducer handles sending report lifecycle events to Kafka. Intake
// events and assignment notifications go to separate topics so notification
// consumers never replay the triage stream.
type ReportProducer struct {
	Writer       *kafka.Writer
	NotifyWriter *kafka.Writer
}

// NewReportProducer initializes the Kafka writers for report events
func NewReportProducer(brokers []string, reportTopic, notifyTopic string) *ReportProducer {
	return &ReportProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    reportTopic,
			Balancer: &kafka.LeastBytes{},
		},
		NotifyWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    notifyTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishReportSubmitted sends the intake event to the Kafka topic
func (p *ReportProducer) PublishReportSubmitted(ctx context.Context, report *model.Report) error {

	event := ReportSubmittedEvent{
		EventType:     "report.submitted",
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		ReportKey:     report.Key,
		Title:         report.Title,
		Reporter:      report.ReporterName,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Keyed by report so retries of the same report stay in one partition.
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.Key),
		Value: payload,
	})
}

// PublishEngineerAssigned sends the assignment notification event
func (p *ReportProducer) PublishEngineerAssigned(ctx context.Context, reportKey, engineer, bugType, severity, title string) error {

	event := EngineerAssignedEvent{
		EventType:     "engineer.assigned",
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		ReportKey:     reportKey,
		Engineer:      engineer,
		BugType:       bugType,
		Severity:      severity,
		Title:         title,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.NotifyWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(reportKey),
		Value: payload,
	})
}

// Close cleans up the Kafka writers
func (p *ReportProducer) Close() error {
	if err := p.Writer.Close(); err != nil {
		return err
	}
	return p.NotifyWriter.Close()
}
