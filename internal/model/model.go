// Package model contains the externally owned records the console works
// with. I keep it lean and focused on data shapes: every entity here is
// fetched from a backing service, never created or persisted locally, so
// there is no behavior beyond a couple of read accessors.
package model

import (
	"sort"
	"strings"
)

// AddressInfo is the per-address detail blob inside an identity's address
// map. Usually empty; the identity store marks preferred addresses with it.
type AddressInfo struct {
	Default  bool `json:"default,omitempty"`
	Optedout bool `json:"optedout,omitempty"`
}

// IdentityDetails is the free-form "details" document of an identity.
// The remote data is known to be incomplete, so every field is optional
// and readers must treat the zero value as "not recorded".
type IdentityDetails struct {
	PersonnelCode     string                            `json:"personnel_code,omitempty"`
	FacilityName      string                            `json:"facility_name,omitempty"`
	DefaultAddrType   string                            `json:"default_addr_type,omitempty"`
	ReceiverRole      string                            `json:"receiver_role,omitempty"`
	Role              string                            `json:"role,omitempty"`
	State             string                            `json:"state,omitempty"`
	PreferredLanguage string                            `json:"preferred_language,omitempty"`
	LinkedTo          string                            `json:"linked_to,omitempty"`
	Addresses         map[string]map[string]AddressInfo `json:"addresses,omitempty"`
}

// DefaultAddresses returns the addresses of the identity's declared default
// address type, sorted for stable output. Fails closed: no default address
// type, or no address map entry for it, yields an empty slice.
func (d IdentityDetails) DefaultAddresses() []string {
	if d.DefaultAddrType == "" {
		return nil
	}
	byType, ok := d.Addresses[d.DefaultAddrType]
	if !ok {
		return nil
	}
	addrs := make([]string, 0, len(byType))
	for addr := range byType {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Identity is a person/contact record owned by the identity store.
type Identity struct {
	ID        string          `json:"id"`
	Version   int             `json:"version,omitempty"`
	Details   IdentityDetails `json:"details"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// RegistrationData is the free-form payload captured at registration time.
type RegistrationData struct {
	OperatorID     string `json:"operator_id,omitempty"`
	ReceiverID     string `json:"receiver_id,omitempty"`
	Gravida        string `json:"gravida,omitempty"`
	MsgType        string `json:"msg_type,omitempty"`
	LastPeriodDate string `json:"last_period_date,omitempty"`
	Language       string `json:"language,omitempty"`
	MsgReceiver    string `json:"msg_receiver,omitempty"`
	VoiceDays      string `json:"voice_days,omitempty"`
	VoiceTimes     string `json:"voice_times,omitempty"`
	PregWeek       string `json:"preg_week,omitempty"`
	RegType        string `json:"reg_type,omitempty"`
}

// Registration is owned by the hub service.
type Registration struct {
	ID        string           `json:"id,omitempty"`
	RegType   string           `json:"reg_type,omitempty"`
	MotherID  string           `json:"mother_id,omitempty"`
	Validated bool             `json:"validated,omitempty"`
	Data      RegistrationData `json:"data"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

// Change is a messaging change event owned by the hub service.
type Change struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	MotherID  string         `json:"mother_id"`
	Data      map[string]any `json:"data,omitempty"`
	Validated bool           `json:"validated,omitempty"`
	Source    int            `json:"source,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// Subscription is owned by the stage-based messaging service.
type Subscription struct {
	ID                    string            `json:"id"`
	Identity              string            `json:"identity"`
	Active                bool              `json:"active"`
	Completed             bool              `json:"completed"`
	Lang                  string            `json:"lang,omitempty"`
	MessageSet            int               `json:"messageset"`
	InitialSequenceNumber int               `json:"initial_sequence_number,omitempty"`
	NextSequenceNumber    int               `json:"next_sequence_number,omitempty"`
	Schedule              int               `json:"schedule,omitempty"`
	ProcessStatus         int               `json:"process_status,omitempty"`
	Version               int               `json:"version,omitempty"`
	URL                   string            `json:"url,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	CreatedAt             string            `json:"created_at"`
	UpdatedAt             string            `json:"updated_at,omitempty"`
}

// MessageSet describes a named sequence of messages a subscriber can be
// enrolled in, owned by the stage-based messaging service.
type MessageSet struct {
	ID              int    `json:"id"`
	ShortName       string `json:"short_name"`
	ContentType     string `json:"content_type,omitempty"`
	NextSet         int    `json:"next_set,omitempty"`
	DefaultSchedule int    `json:"default_schedule,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// FamilyName is the message set's short name truncated at the first dot,
// e.g. "prebirth.mother.audio.10_42.tue_thu.9_11" -> "prebirth".
func (m MessageSet) FamilyName() string {
	name, _, _ := strings.Cut(m.ShortName, ".")
	return name
}

// OptOut records that an identity asked to stop receiving messages.
type OptOut struct {
	ID                string `json:"id,omitempty"`
	OptOutType        string `json:"optout_type,omitempty"`
	Identity          string `json:"identity"`
	AddressType       string `json:"address_type,omitempty"`
	Address           string `json:"address,omitempty"`
	RequestSource     string `json:"request_source,omitempty"`
	RequestorSourceID string `json:"requestor_source_id,omitempty"`
	Reason            string `json:"reason,omitempty"`
	CreatedAt         string `json:"created_at,omitempty"`
}

// OutboundMessage is owned by the message sender service. Metadata is kept
// as a raw map because the sender attaches transport-specific keys; the one
// we care about is voice_speech_url.
type OutboundMessage struct {
	ID         string         `json:"id,omitempty"`
	ToAddr     string         `json:"to_addr"`
	ToIdentity string         `json:"to_identity,omitempty"`
	Content    string         `json:"content,omitempty"`
	Delivered  bool           `json:"delivered"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at,omitempty"`
}

// IsVoice reports whether the message was sent as a voice call rather than
// a text message. The sender marks voice messages with a voice_speech_url
// metadata key; its value is irrelevant.
func (m OutboundMessage) IsVoice() bool {
	_, ok := m.Metadata["voice_speech_url"]
	return ok
}

// InboundMessage is a message received by the message sender service.
type InboundMessage struct {
	MessageID     string `json:"message_id,omitempty"`
	InReplyTo     string `json:"in_reply_to,omitempty"`
	ToAddr        string `json:"to_addr,omitempty"`
	FromAddr      string `json:"from_addr,omitempty"`
	FromIdentity  string `json:"from_identity,omitempty"`
	Content       string `json:"content,omitempty"`
	TransportName string `json:"transport_name,omitempty"`
	TransportType string `json:"transport_type,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Permission is one entry of an operator's permission list as returned by
// the auth service.
type Permission struct {
	Type     string `json:"type"`
	ObjectID int64  `json:"object_id"`
}

// Dashboard is a dashboard the operator may view.
type Dashboard struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// User is the auth service's view of an operator.
type User struct {
	Email       string       `json:"email"`
	Permissions []Permission `json:"permissions"`
	Dashboards  []Dashboard  `json:"dashboards,omitempty"`
}

// Point is one sample of a metrics API timeseries. X is a Unix timestamp
// in milliseconds.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}
