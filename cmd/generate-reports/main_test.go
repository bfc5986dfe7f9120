package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedplatform/control-interface/internal/config"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{
		"--start", "2016-01-01",
		"--output-file", "report.xlsx",
		"--email-to", "a@example.org",
		"--email-to", "b@example.org",
		"--email-subject", "January report",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), opts.start)
	assert.Equal(t, time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC), opts.end)
	assert.Equal(t, "report.xlsx", opts.outputFile)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, opts.emailTo)
	assert.Equal(t, "January report", opts.emailSubject)
}

func TestParseOptionsExplicitEnd(t *testing.T) {
	opts, err := parseOptions([]string{
		"--start", "2016-01-01",
		"--end", "2016-01-15",
		"--output-file", "report.xlsx",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2016, 1, 15, 0, 0, 0, 0, time.UTC), opts.end)
}

func TestParseOptionsRejects(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"no start", []string{"--output-file", "report.xlsx"}},
		{"bad start", []string{"--start", "January", "--output-file", "report.xlsx"}},
		{"bad end", []string{"--start", "2016-01-01", "--end", "soon", "--output-file", "report.xlsx"}},
		{"end before start", []string{"--start", "2016-02-01", "--end", "2016-01-01", "--output-file", "report.xlsx"}},
		{"no destination", []string{"--start", "2016-01-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseOptions(tc.args)
			assert.Error(t, err)
		})
	}
}

func TestOverridesApply(t *testing.T) {
	opts, err := parseOptions([]string{
		"--start", "2016-01-01",
		"--output-file", "report.xlsx",
		"--hub-url", "http://hub.example.org",
		"--hub-token", "hub-token",
		"--email-host", "smtp.example.org",
		"--email-port", "587",
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Services.Hub = config.ServiceConfig{URL: "http://old", Token: "old"}
	cfg.Services.IdentityStore = config.ServiceConfig{URL: "http://ids", Token: "ids-token"}
	cfg.Email.Host = "old-smtp"
	cfg.Email.Port = 25

	opts.overrides.apply(cfg)

	assert.Equal(t, "http://hub.example.org", cfg.Services.Hub.URL)
	assert.Equal(t, "hub-token", cfg.Services.Hub.Token)
	assert.Equal(t, "http://ids", cfg.Services.IdentityStore.URL)
	assert.Equal(t, "smtp.example.org", cfg.Email.Host)
	assert.Equal(t, 587, cfg.Email.Port)
}

func TestValidateReportConfig(t *testing.T) {
	full := func() *config.Config {
		cfg := &config.Config{}
		svc := config.ServiceConfig{URL: "http://svc", Token: "token"}
		cfg.Services.Hub = svc
		cfg.Services.IdentityStore = svc
		cfg.Services.StageBasedMessaging = svc
		cfg.Services.MessageSender = svc
		cfg.Email.Host = "smtp.example.org"
		cfg.Email.From = "reports@example.org"
		return cfg
	}

	assert.NoError(t, validateReportConfig(full(), true))

	cfg := full()
	cfg.Services.Hub.Token = ""
	err := validateReportConfig(cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hub token")

	cfg = full()
	cfg.Services.MessageSender.URL = ""
	assert.Error(t, validateReportConfig(cfg, false))

	cfg = full()
	cfg.Email.From = ""
	assert.Error(t, validateReportConfig(cfg, true))
	assert.NoError(t, validateReportConfig(cfg, false))
}

func TestOneMonthAfter(t *testing.T) {
	cases := []struct {
		start string
		want  string
	}{
		{"2016-01-01", "2016-02-01"},
		{"2016-02-01", "2016-03-01"},
		{"2015-02-01", "2015-03-01"},
		{"2016-12-01", "2017-01-01"},
		{"2016-01-15", "2016-02-15"},
	}
	for _, tc := range cases {
		start, err := time.Parse(dateLayout, tc.start)
		require.NoError(t, err)
		assert.Equal(t, tc.want, oneMonthAfter(start).Format(dateLayout), "start %s", tc.start)
	}
}

func TestAttachmentName(t *testing.T) {
	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2016, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "report-2016-01-01-to-2016-02-01.xlsx", attachmentName(start, end))
}
