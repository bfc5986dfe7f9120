package report

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedplatform/control-interface/internal/client"
	"github.com/seedplatform/control-interface/internal/model"
	"github.com/seedplatform/control-interface/internal/pager"
)

// timeLayout is the timestamp format the backing services filter on:
// RFC 3339 with a numeric zone offset, so UTC renders as +00:00.
const timeLayout = "2006-01-02T15:04:05-07:00"

const guessDisclaimer = "NOTE: The message set is not guaranteed to be " +
	"correct, as the current structure of the data does not allow us to " +
	"link the opt out to a subscription, so this is a best-effort guess."

// Aggregator builds the monthly operations workbook from the four
// backing services.
type Aggregator struct {
	identities *client.IdentityStore
	hub        *client.Hub
	sbm        *client.StageBasedMessaging
	sender     *client.MessageSender
	log        zerolog.Logger
}

func NewAggregator(identities *client.IdentityStore, hub *client.Hub,
	sbm *client.StageBasedMessaging, sender *client.MessageSender,
	logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		identities: identities,
		hub:        hub,
		sbm:        sbm,
		sender:     sender,
		log:        logger.With().Str("module", "report").Logger(),
	}
}

// run is the state of one Generate call: the reporting window, the
// workbook under construction, and run-scoped lookup caches.
type run struct {
	*Aggregator
	start, end time.Time
	wb         *Workbook
	identity   *Cache[string, model.Identity]
	messageSet *Cache[int, model.MessageSet]
}

// Generate builds the full workbook for the window [start, end). Every
// remote failure aborts the run; a partially aggregated report would be
// worse than none.
func (a *Aggregator) Generate(ctx context.Context, start, end time.Time) (*Workbook, error) {
	r := &run{
		Aggregator: a,
		start:      start,
		end:        end,
		wb:         NewWorkbook(),
		identity: NewCache(func(ctx context.Context, id string) (model.Identity, error) {
			return a.identities.Identity(ctx, id)
		}),
		messageSet: NewCache(func(ctx context.Context, id int) (model.MessageSet, error) {
			return a.sbm.MessageSet(ctx, id)
		}),
	}

	a.log.Info().
		Time("start", start).
		Time("end", end).
		Msg("generating report")

	registrations, err := pager.Collect(a.hub.Registrations(ctx, url.Values{
		"created_after":  {ts(start)},
		"created_before": {ts(end)},
	}))
	if err != nil {
		return nil, fmt.Errorf("collect registrations: %w", err)
	}
	subscriptions, err := pager.Collect(a.sbm.Subscriptions(ctx, url.Values{
		"created_before": {ts(end)},
	}))
	if err != nil {
		return nil, fmt.Errorf("collect subscriptions: %w", err)
	}
	outbound, err := pager.Collect(a.sender.Outbound(ctx, url.Values{
		"after":  {ts(start)},
		"before": {ts(end)},
	}))
	if err != nil {
		return nil, fmt.Errorf("collect outbound messages: %w", err)
	}
	optouts, err := pager.Collect(a.identities.OptOuts(ctx, url.Values{
		"created_at__gte": {ts(start)},
		"created_at__lte": {ts(end)},
	}))
	if err != nil {
		return nil, fmt.Errorf("collect opt-outs: %w", err)
	}
	changes, err := pager.Collect(a.hub.Changes(ctx, url.Values{
		"action":         {"change_loss"},
		"created_after":  {ts(start)},
		"created_before": {ts(end)},
	}))
	if err != nil {
		return nil, fmt.Errorf("collect loss changes: %w", err)
	}

	if err := r.registrationsByDate(ctx, registrations); err != nil {
		return nil, err
	}
	if err := r.healthWorkerRegistrations(ctx, registrations); err != nil {
		return nil, err
	}
	if err := r.enrollments(ctx, subscriptions); err != nil {
		return nil, err
	}
	if err := r.smsPerMSISDN(outbound); err != nil {
		return nil, err
	}
	if err := r.obdDeliveryFailure(outbound); err != nil {
		return nil, err
	}
	if err := r.optOutsBySubscription(ctx, optouts); err != nil {
		return nil, err
	}
	if err := r.optOutsByDate(ctx, optouts, changes); err != nil {
		return nil, err
	}
	return r.wb, nil
}

// registrationsByDate writes one row per registration in the window,
// joined with the operator and receiver identities. The Cadre column
// reads the operator's role field, which most operator records do not
// carry; it is usually blank.
func (r *run) registrationsByDate(ctx context.Context, registrations []model.Registration) error {
	sheet, err := r.wb.AddSheet("Registrations by date")
	if err != nil {
		return err
	}
	if err := sheet.SetHeader([]string{
		"MSISDN",
		"Created",
		"gravida",
		"msg_type",
		"last_period_date",
		"language",
		"msg_receiver",
		"voice_days",
		"Voice_times",
		"preg_week",
		"reg_type",
		"Personnel_code",
		"Facility",
		"Cadre",
		"State",
	}); err != nil {
		return err
	}

	for _, reg := range registrations {
		operator, err := r.identity.Get(ctx, reg.Data.OperatorID)
		if err != nil {
			return fmt.Errorf("registration operator: %w", err)
		}
		receiver, err := r.identity.Get(ctx, reg.Data.ReceiverID)
		if err != nil {
			return fmt.Errorf("registration receiver: %w", err)
		}
		if err := sheet.AddRow(map[string]any{
			"MSISDN":           joinAddresses(receiver.Details),
			"Created":          reg.CreatedAt,
			"gravida":          reg.Data.Gravida,
			"msg_type":         reg.Data.MsgType,
			"last_period_date": reg.Data.LastPeriodDate,
			"language":         reg.Data.Language,
			"msg_receiver":     reg.Data.MsgReceiver,
			"voice_days":       reg.Data.VoiceDays,
			"Voice_times":      reg.Data.VoiceTimes,
			"preg_week":        reg.Data.PregWeek,
			"reg_type":         reg.Data.RegType,
			"Personnel_code":   operator.Details.PersonnelCode,
			"Facility":         operator.Details.FacilityName,
			"Cadre":            operator.Details.Role,
			"State":            operator.Details.State,
		}); err != nil {
			return err
		}
	}
	return nil
}

// healthWorkerRegistrations counts the window's registrations per
// operator.
func (r *run) healthWorkerRegistrations(ctx context.Context, registrations []model.Registration) error {
	sheet, err := r.wb.AddSheet("Health worker registrations")
	if err != nil {
		return err
	}
	if err := sheet.SetHeader([]string{
		"Unique Personnel Code",
		"Facility",
		"State",
		"Cadre",
		"Number of Registrations",
	}); err != nil {
		return err
	}

	counts := map[string]int{}
	var operators []string
	for _, reg := range registrations {
		id := reg.Data.OperatorID
		if _, seen := counts[id]; !seen {
			operators = append(operators, id)
		}
		counts[id]++
	}
	sort.Strings(operators)

	for _, id := range operators {
		operator, err := r.identity.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("operator %s: %w", id, err)
		}
		if err := sheet.AddRow(map[string]any{
			"Unique Personnel Code":   operator.Details.PersonnelCode,
			"Facility":                operator.Details.FacilityName,
			"State":                   operator.Details.State,
			"Cadre":                   operator.Details.ReceiverRole,
			"Number of Registrations": counts[id],
		}); err != nil {
			return err
		}
	}
	return nil
}

type enrollmentKey struct {
	family string
	role   string
}

type enrollmentCount struct {
	total     int
	inPeriod  int
	optedOut  int
	completed int
}

// enrollments groups every subscription created before the window's end
// by message set family and receiver role. Totals are cumulative; the
// period columns count subscriptions created inside the window.
func (r *run) enrollments(ctx context.Context, subscriptions []model.Subscription) error {
	sheet, err := r.wb.AddSheet("Enrollments")
	if err != nil {
		return err
	}
	if err := sheet.SetHeader([]string{
		"Message set",
		"Roleplayer",
		"Total enrolled",
		"Enrolled in period",
		"Enrolled and opted out in period",
		"Enrolled and completed in period",
	}); err != nil {
		return err
	}

	counts := map[enrollmentKey]*enrollmentCount{}
	for _, sub := range subscriptions {
		set, err := r.messageSet.Get(ctx, sub.MessageSet)
		if err != nil {
			return fmt.Errorf("subscription message set: %w", err)
		}
		subscriber, err := r.identity.Get(ctx, sub.Identity)
		if err != nil {
			return fmt.Errorf("subscriber identity: %w", err)
		}
		key := enrollmentKey{family: set.FamilyName(), role: subscriber.Details.ReceiverRole}
		count := counts[key]
		if count == nil {
			count = &enrollmentCount{}
			counts[key] = count
		}
		count.total++
		if inPeriod(sub.CreatedAt, r.start) {
			count.inPeriod++
			if !sub.Active && !sub.Completed {
				count.optedOut++
			}
			if sub.Completed {
				count.completed++
			}
		}
	}

	keys := make([]enrollmentKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].family != keys[j].family {
			return keys[i].family < keys[j].family
		}
		return keys[i].role < keys[j].role
	})

	for _, key := range keys {
		count := counts[key]
		if err := sheet.AddRow(map[string]any{
			"Message set":                      key.family,
			"Roleplayer":                       key.role,
			"Total enrolled":                   count.total,
			"Enrolled in period":               count.inPeriod,
			"Enrolled and opted out in period": count.optedOut,
			"Enrolled and completed in period": count.completed,
		}); err != nil {
			return err
		}
	}
	return nil
}

// smsPerMSISDN writes the window's text messages per address, one Yes/No
// column per message in send order. Voice messages have their own sheet.
func (r *run) smsPerMSISDN(outbound []model.OutboundMessage) error {
	sheet, err := r.wb.AddSheet("SMS delivery per MSISDN")
	if err != nil {
		return err
	}

	byAddr := map[string][]model.OutboundMessage{}
	var addrs []string
	for _, msg := range outbound {
		if msg.IsVoice() {
			continue
		}
		if _, seen := byAddr[msg.ToAddr]; !seen {
			addrs = append(addrs, msg.ToAddr)
		}
		byAddr[msg.ToAddr] = append(byAddr[msg.ToAddr], msg)
	}
	sort.Strings(addrs)

	most := 0
	for _, msgs := range byAddr {
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		})
		if len(msgs) > most {
			most = len(msgs)
		}
	}

	headers := []string{"MSISDN"}
	for i := 1; i <= most; i++ {
		headers = append(headers, fmt.Sprintf("SMS %d", i))
	}
	if err := sheet.SetHeader(headers); err != nil {
		return err
	}

	for _, addr := range addrs {
		row := []any{addr}
		for _, msg := range byAddr[addr] {
			row = append(row, yesNo(msg.Delivered))
		}
		if err := sheet.Append(row...); err != nil {
			return err
		}
	}
	return nil
}

// obdDeliveryFailure summarizes voice (OBD) delivery for the window. The
// sheet has no header row; its first written row lands on row 2 like
// every other sheet, leaving row 1 blank.
func (r *run) obdDeliveryFailure(outbound []model.OutboundMessage) error {
	sheet, err := r.wb.AddSheet("OBD Delivery Failure")
	if err != nil {
		return err
	}

	total, failed := 0, 0
	for _, msg := range outbound {
		if !msg.IsVoice() {
			continue
		}
		total++
		if !msg.Delivered {
			failed++
		}
	}
	rate := "0.00%"
	if total > 0 {
		rate = fmt.Sprintf("%.2f%%", float64(failed)/float64(total)*100)
	}

	period := r.start.Format("2006-01-02") + " - " + r.end.Format("2006-01-02")
	if err := sheet.Append("In the last period:", period); err != nil {
		return err
	}
	if err := sheet.Append("OBDs Sent", "OBDs failed", "Failure rate"); err != nil {
		return err
	}
	return sheet.Append(total, failed, rate)
}

// optOutsBySubscription lists the window's opt-outs with a best-effort
// guess at the message set each one left. The data model records no link
// from an opt-out to a subscription, so the guess is the identity's most
// recent inactive subscription and the sheet carries a disclaimer.
func (r *run) optOutsBySubscription(ctx context.Context, optouts []model.OptOut) error {
	sheet, err := r.wb.AddSheet("Opt Outs by Subscription")
	if err != nil {
		return err
	}
	if err := sheet.SetHeader([]string{
		"Timestamp",
		"Subscription Message Set",
		"Receiver's Role",
		"Reason",
	}); err != nil {
		return err
	}

	for _, optout := range optouts {
		ident, err := r.identity.Get(ctx, optout.Identity)
		if err != nil {
			return fmt.Errorf("opt-out identity: %w", err)
		}
		setName := "Unknown"
		if sub, ok, err := r.lastInactiveSubscription(ctx, optout.Identity, optout.CreatedAt); err != nil {
			return err
		} else if ok {
			set, err := r.messageSet.Get(ctx, sub.MessageSet)
			if err != nil {
				return fmt.Errorf("opt-out message set: %w", err)
			}
			if set.ShortName != "" {
				setName = set.ShortName
			}
		}
		if err := sheet.AddRow(map[string]any{
			"Timestamp":                orUnknown(optout.CreatedAt),
			"Subscription Message Set": setName,
			"Receiver's Role":          orUnknown(ident.Details.ReceiverRole),
			"Reason":                   orUnknown(optout.Reason),
		}); err != nil {
			return err
		}
	}
	return sheet.Append(guessDisclaimer)
}

// optOutRow is one sheet row of the opt-outs-by-date report, from either
// an opt-out record or a loss change event.
type optOutRow struct {
	timestamp          string
	registeredReceiver string
	reason             string
	loss               string
	optOutReceiver     string
	messageSets        string
	receivers          string
	receiverCount      int
}

// optOutsByDate merges the window's opt-out records with its loss change
// events into one timeline. Loss changes are implicit miscarriage
// opt-outs; explicit opt-outs only count as loss when their recorded
// reason says so.
func (r *run) optOutsByDate(ctx context.Context, optouts []model.OptOut, changes []model.Change) error {
	sheet, err := r.wb.AddSheet("Opt Outs by Date")
	if err != nil {
		return err
	}
	if err := sheet.SetHeader([]string{
		"Timestamp",
		"Registered Receiver",
		"Opt Out Reason",
		"Loss Subscription",
		"Opt Out Receiver",
		"Message Sets",
		"Receivers",
		"Number of Receivers",
	}); err != nil {
		return err
	}

	rows := make([]optOutRow, 0, len(optouts)+len(changes))
	for _, optout := range optouts {
		loss := ""
		if optout.Reason == "miscarriage" {
			loss = "No"
		}
		row, err := r.buildOptOutRow(ctx, optout.Identity, optout.CreatedAt, optout.Reason, loss)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	for _, change := range changes {
		row, err := r.buildOptOutRow(ctx, change.MotherID, change.CreatedAt, "miscarriage", "Yes")
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].timestamp < rows[j].timestamp
	})

	for _, row := range rows {
		if err := sheet.AddRow(map[string]any{
			"Timestamp":           row.timestamp,
			"Registered Receiver": row.registeredReceiver,
			"Opt Out Reason":      row.reason,
			"Loss Subscription":   row.loss,
			"Opt Out Receiver":    row.optOutReceiver,
			"Message Sets":        row.messageSets,
			"Receivers":           row.receivers,
			"Number of Receivers": row.receiverCount,
		}); err != nil {
			return err
		}
	}
	return sheet.Append(guessDisclaimer)
}

func (r *run) buildOptOutRow(ctx context.Context, identityID, timestamp, reason, loss string) (optOutRow, error) {
	ident, err := r.identity.Get(ctx, identityID)
	if err != nil {
		return optOutRow{}, fmt.Errorf("opt-out identity: %w", err)
	}

	registrations, err := pager.Collect(r.hub.Registrations(ctx, url.Values{
		"receiver_id":    {identityID},
		"created_before": {timestamp},
	}))
	if err != nil {
		return optOutRow{}, fmt.Errorf("opt-out registrations: %w", err)
	}
	registeredReceiver := ""
	latest := ""
	for _, reg := range registrations {
		if latest == "" || reg.CreatedAt > latest {
			latest = reg.CreatedAt
			registeredReceiver = reg.Data.MsgReceiver
		}
	}

	subscriptions, err := r.inactiveSubscriptions(ctx, identityID, timestamp)
	if err != nil {
		return optOutRow{}, err
	}
	setNames := make([]string, 0, len(subscriptions))
	for _, sub := range subscriptions {
		set, err := r.messageSet.Get(ctx, sub.MessageSet)
		if err != nil {
			return optOutRow{}, fmt.Errorf("opt-out message set: %w", err)
		}
		if set.ShortName != "" {
			setNames = append(setNames, set.ShortName)
		}
	}

	role := ident.Details.ReceiverRole
	receivers := []string{}
	if role != "" {
		receivers = append(receivers, role)
	}
	if ident.Details.LinkedTo != "" {
		linked, err := r.identity.Get(ctx, ident.Details.LinkedTo)
		if err != nil {
			return optOutRow{}, fmt.Errorf("linked identity: %w", err)
		}
		if linked.Details.ReceiverRole != "" {
			receivers = append(receivers, linked.Details.ReceiverRole)
		}
	}

	optOutReceiver := ""
	if role != "" {
		optOutReceiver = role + " messages"
	}

	return optOutRow{
		timestamp:          timestamp,
		registeredReceiver: registeredReceiver,
		reason:             reason,
		loss:               loss,
		optOutReceiver:     optOutReceiver,
		messageSets:        strings.Join(setNames, ", "),
		receivers:          strings.Join(receivers, ", "),
		receiverCount:      len(receivers),
	}, nil
}

// inactiveSubscriptions fetches the subscriptions an identity had left by
// the given time: neither active nor completed, created before it.
func (r *run) inactiveSubscriptions(ctx context.Context, identityID, before string) ([]model.Subscription, error) {
	subs, err := pager.Collect(r.sbm.Subscriptions(ctx, url.Values{
		"active":         {client.BoolParam(false)},
		"completed":      {client.BoolParam(false)},
		"created_before": {before},
		"identity":       {identityID},
	}))
	if err != nil {
		return nil, fmt.Errorf("inactive subscriptions for %s: %w", identityID, err)
	}
	return subs, nil
}

// lastInactiveSubscription returns the most recently created of the
// identity's inactive subscriptions, if it has any.
func (r *run) lastInactiveSubscription(ctx context.Context, identityID, before string) (model.Subscription, bool, error) {
	subs, err := r.inactiveSubscriptions(ctx, identityID, before)
	if err != nil {
		return model.Subscription{}, false, err
	}
	var last model.Subscription
	found := false
	for _, sub := range subs {
		if !found || sub.CreatedAt > last.CreatedAt {
			last = sub
			found = true
		}
	}
	return last, found, nil
}

func ts(t time.Time) string {
	return t.Format(timeLayout)
}

// inPeriod reports whether a service timestamp falls on or after start.
// The window's upper bound is enforced server-side by the query filters.
func inPeriod(createdAt string, start time.Time) bool {
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return false
	}
	return !t.Before(start)
}

func joinAddresses(details model.IdentityDetails) string {
	return strings.Join(details.DefaultAddresses(), ", ")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
