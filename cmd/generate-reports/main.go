// Command generate-reports builds the operational Excel report for a
// reporting window and writes it to a file, emails it, or both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/config"
	"github.com/seedplatform/control-interface/internal/logger"
	"github.com/seedplatform/control-interface/internal/mailer"
	"github.com/seedplatform/control-interface/internal/report"
)

const dateLayout = "2006-01-02"

// stringList collects a repeatable flag value.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// options are the parsed and validated command-line arguments.
type options struct {
	start        time.Time
	end          time.Time
	outputFile   string
	emailTo      []string
	emailSubject string
	configFile   string
	overrides    overrides
}

// overrides replace config-file values when set on the command line.
type overrides struct {
	emailFrom     string
	emailHost     string
	emailPort     int
	emailUser     string
	emailPassword string
	hub           serviceOverride
	identity      serviceOverride
	sbm           serviceOverride
	ms            serviceOverride
}

type serviceOverride struct {
	url   string
	token string
}

func (o serviceOverride) apply(svc *config.ServiceConfig) {
	if o.url != "" {
		svc.URL = o.url
	}
	if o.token != "" {
		svc.Token = o.token
	}
}

func (o overrides) apply(cfg *config.Config) {
	o.hub.apply(&cfg.Services.Hub)
	o.identity.apply(&cfg.Services.IdentityStore)
	o.sbm.apply(&cfg.Services.StageBasedMessaging)
	o.ms.apply(&cfg.Services.MessageSender)
	if o.emailFrom != "" {
		cfg.Email.From = o.emailFrom
	}
	if o.emailHost != "" {
		cfg.Email.Host = o.emailHost
	}
	if o.emailPort != 0 {
		cfg.Email.Port = o.emailPort
	}
	if o.emailUser != "" {
		cfg.Email.Username = o.emailUser
	}
	if o.emailPassword != "" {
		cfg.Email.Password = o.emailPassword
	}
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("generate-reports", flag.ContinueOnError)

	startRaw := fs.String("start", "", "start of the reporting window (YYYY-MM-DD, inclusive)")
	endRaw := fs.String("end", "", "end of the reporting window (YYYY-MM-DD, exclusive; defaults to one month after start)")
	outputFile := fs.String("output-file", "", "path to write the workbook to")
	emailSubject := fs.String("email-subject", "Operational Report", "subject line for the report email")
	configFile := fs.String("config", "config.yaml", "path to the configuration file")
	var emailTo stringList
	fs.Var(&emailTo, "email-to", "recipient address, repeatable")

	var ov overrides
	fs.StringVar(&ov.emailFrom, "email-from", "", "sender address, overrides the config file")
	fs.StringVar(&ov.emailHost, "email-host", "", "SMTP host, overrides the config file")
	fs.IntVar(&ov.emailPort, "email-port", 0, "SMTP port, overrides the config file")
	fs.StringVar(&ov.emailUser, "email-user", "", "SMTP username, overrides the config file")
	fs.StringVar(&ov.emailPassword, "email-password", "", "SMTP password, overrides the config file")
	fs.StringVar(&ov.hub.url, "hub-url", "", "hub base URL, overrides the config file")
	fs.StringVar(&ov.hub.token, "hub-token", "", "hub API token, overrides the config file")
	fs.StringVar(&ov.identity.url, "identity-url", "", "identity store base URL, overrides the config file")
	fs.StringVar(&ov.identity.token, "identity-token", "", "identity store API token, overrides the config file")
	fs.StringVar(&ov.sbm.url, "sbm-url", "", "stage-based messaging base URL, overrides the config file")
	fs.StringVar(&ov.sbm.token, "sbm-token", "", "stage-based messaging API token, overrides the config file")
	fs.StringVar(&ov.ms.url, "ms-url", "", "message sender base URL, overrides the config file")
	fs.StringVar(&ov.ms.token, "ms-token", "", "message sender API token, overrides the config file")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if *startRaw == "" {
		return options{}, errors.New("a start date is required")
	}
	start, err := time.Parse(dateLayout, *startRaw)
	if err != nil {
		return options{}, fmt.Errorf("invalid start date %q: %w", *startRaw, err)
	}

	end := oneMonthAfter(start)
	if *endRaw != "" {
		end, err = time.Parse(dateLayout, *endRaw)
		if err != nil {
			return options{}, fmt.Errorf("invalid end date %q: %w", *endRaw, err)
		}
	}
	if !end.After(start) {
		return options{}, errors.New("the end date must fall after the start date")
	}

	if *outputFile == "" && len(emailTo) == 0 {
		return options{}, errors.New("at least one of --output-file and --email-to is required")
	}

	return options{
		start:        start,
		end:          end,
		outputFile:   *outputFile,
		emailTo:      emailTo,
		emailSubject: *emailSubject,
		configFile:   *configFile,
		overrides:    ov,
	}, nil
}

// validateReportConfig ensures every backing service the report reads
// from is fully configured. It runs before the first remote request.
func validateReportConfig(cfg *config.Config, emailing bool) error {
	services := []struct {
		name string
		svc  config.ServiceConfig
	}{
		{"hub", cfg.Services.Hub},
		{"identity store", cfg.Services.IdentityStore},
		{"stage-based messaging", cfg.Services.StageBasedMessaging},
		{"message sender", cfg.Services.MessageSender},
	}
	for _, s := range services {
		if s.svc.URL == "" {
			return fmt.Errorf("the %s URL is not configured", s.name)
		}
		if s.svc.Token == "" {
			return fmt.Errorf("the %s token is not configured", s.name)
		}
	}
	if emailing {
		if cfg.Email.Host == "" {
			return errors.New("the SMTP host is not configured")
		}
		if cfg.Email.From == "" {
			return errors.New("the sender address is not configured")
		}
	}
	return nil
}

// oneMonthAfter advances by the length of the month the date falls in,
// so a window starting on the first always covers the whole calendar
// month.
func oneMonthAfter(t time.Time) time.Time {
	return t.AddDate(0, 0, daysInMonth(t))
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	opts.overrides.apply(cfg)
	if err := validateReportConfig(cfg, len(opts.emailTo) > 0); err != nil {
		log.Fatalf("❌ %v", err)
	}

	svcs := cfg.Services
	agg := report.NewAggregator(
		client.NewIdentityStore(svcs.IdentityStore.URL, svcs.IdentityStore.Token, appLogger),
		client.NewHub(svcs.Hub.URL, svcs.Hub.Token, appLogger),
		client.NewStageBasedMessaging(svcs.StageBasedMessaging.URL, svcs.StageBasedMessaging.Token, appLogger),
		client.NewMessageSender(svcs.MessageSender.URL, svcs.MessageSender.Token, appLogger),
		appLogger,
	)

	ctx := context.Background()
	appLogger.Info().
		Time("start", opts.start).
		Time("end", opts.end).
		Msg("generating report")

	wb, err := agg.Generate(ctx, opts.start, opts.end)
	if err != nil {
		log.Fatalf("❌ Report generation failed: %v", err)
	}
	defer wb.Close()

	if opts.outputFile != "" {
		if err := wb.Save(opts.outputFile); err != nil {
			log.Fatalf("❌ Writing %s failed: %v", opts.outputFile, err)
		}
		appLogger.Info().Str("path", opts.outputFile).Msg("report written")
	}

	if len(opts.emailTo) > 0 {
		raw, err := wb.Bytes()
		if err != nil {
			log.Fatalf("❌ Encoding the workbook failed: %v", err)
		}
		m := mailer.New(mailer.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, appLogger)
		name := attachmentName(opts.start, opts.end)
		if err := m.SendReport(ctx, opts.emailTo, opts.emailSubject, name, raw); err != nil {
			log.Fatalf("❌ Emailing the report failed: %v", err)
		}
		appLogger.Info().Strs("to", opts.emailTo).Str("attachment", name).Msg("report emailed")
	}
}

func attachmentName(start, end time.Time) string {
	return fmt.Sprintf("report-%s-to-%s.xlsx",
		start.Format(dateLayout), end.Format(dateLayout))
}
