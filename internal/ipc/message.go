// Package ipc carries messages between the embedded page and the shell.
// Every inbound request becomes a typed Message handled by one Dispatcher.
package ipc

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	shellerrors "grape/internal/infrastructure/errors"
)

// Kind identifies a message
type Kind int

const (
	KindUnknown Kind = iota

	// Sent by the page
	AddBadge
	RemoveBadge
	ShowNotification
	LoadChat
	OpenExternal
	ChooseDomain

	// Raised inside the shell
	Navigate
	NotificationClicked
	ThemeChanged
	SecondInstance
)

var kindNames = map[Kind]string{
	AddBadge:            "addBadge",
	RemoveBadge:         "removeBadge",
	ShowNotification:    "showNotification",
	LoadChat:            "loadChat",
	OpenExternal:        "openExternal",
	ChooseDomain:        "chooseDomain",
	Navigate:            "navigate",
	NotificationClicked: "notificationClicked",
	ThemeChanged:        "themeChanged",
	SecondInstance:      "secondInstance",
}

// PageKinds are the messages the page may send, in registration order
var PageKinds = []Kind{AddBadge, RemoveBadge, ShowNotification, LoadChat, OpenExternal, ChooseDomain}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOf maps an event name to its Kind
func KindOf(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// Notification is the showNotification payload
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	// Event is emitted back to the page when the balloon is clicked
	Event string `json:"event"`
}

// Message is one unit of work for the dispatcher. Only the fields relevant
// to Kind are set.
type Message struct {
	Kind Kind

	Count        string       // AddBadge
	Notification Notification // ShowNotification
	URL          string       // OpenExternal, ChooseDomain, Navigate
	ID           string       // NotificationClicked
	Dark         bool         // ThemeChanged
	Args         []string     // SecondInstance
}

// Parse validates a page message
func Parse(name string, data ...interface{}) (Message, error) {
	kind := KindOf(name)
	msg := Message{Kind: kind}

	switch kind {
	case AddBadge:
		if len(data) == 0 {
			return msg, invalid(name, "count", "", "missing")
		}
		count, err := parseCount(data[0])
		if err != nil {
			return msg, invalid(name, "count", fmt.Sprint(data[0]), err.Error())
		}
		msg.Count = count

	case RemoveBadge, LoadChat:

	case ShowNotification:
		if len(data) == 0 {
			return msg, invalid(name, "notification", "", "missing")
		}
		n, err := parseNotification(data[0])
		if err != nil {
			return msg, invalid(name, "notification", fmt.Sprint(data[0]), err.Error())
		}
		msg.Notification = n

	case OpenExternal, ChooseDomain:
		if len(data) == 0 {
			return msg, invalid(name, "url", "", "missing")
		}
		raw, _ := data[0].(string)
		if !isWebURL(raw) {
			return msg, invalid(name, "url", fmt.Sprint(data[0]), "not an http(s) URL")
		}
		msg.URL = raw

	default:
		return msg, invalid(name, "name", name, "not a page message")
	}

	return msg, nil
}

func invalid(name, field, value, reason string) error {
	return shellerrors.HandleValidationError("ipc.Parse:"+name, field, value, reason)
}

// parseCount accepts a JSON number or a numeric string
func parseCount(v interface{}) (string, error) {
	switch c := v.(type) {
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(c), nil
	case int64:
		return strconv.FormatInt(c, 10), nil
	case string:
		s := strings.TrimSpace(c)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", fmt.Errorf("not numeric")
		}
		return s, nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

func parseNotification(v interface{}) (Notification, error) {
	fields, ok := v.(map[string]interface{})
	if !ok {
		return Notification{}, fmt.Errorf("expected object, got %T", v)
	}

	var n Notification
	for key, dst := range map[string]*string{"title": &n.Title, "message": &n.Message, "event": &n.Event} {
		raw, present := fields[key]
		if !present {
			return Notification{}, fmt.Errorf("%s is required", key)
		}
		s, ok := raw.(string)
		if !ok {
			return Notification{}, fmt.Errorf("%s must be a string", key)
		}
		*dst = s
	}

	if n.Event == "" {
		return Notification{}, fmt.Errorf("event must not be empty")
	}
	return n, nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
