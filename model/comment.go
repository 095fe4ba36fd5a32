// Package model - report comment thread.
package model

import "time"

// ReportComment is a single comment on a report. System comments are written
// by the triage pipeline (duplicate markers, reassignment audit notes).
type ReportComment struct {
	Key       string    `json:"_key,omitempty"`
	ObjType   string    `json:"objtype,omitempty"`
	ReportKey string    `json:"report_key"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReportComment creates a comment authored by a human user.
func NewReportComment(reportKey, author, body string) *ReportComment {
	return &ReportComment{
		ObjType:   "ReportComment",
		ReportKey: reportKey,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now(),
	}
}

// NewSystemComment creates a comment authored by the system actor.
func NewSystemComment(reportKey, author, body string) *ReportComment {
	c := NewReportComment(reportKey, author, body)
	c.System = true
	return c
}
