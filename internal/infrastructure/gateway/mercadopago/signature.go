package mercadopago

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apppay "github.com/escabi/escabiapi/internal/application/payment"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
)

const (
	headerSignature = "x-signature"
	headerRequestID = "x-request-id"
)

type webhookBody struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// ParseWebhook decodes a notification from the query string, falling back to
// the JSON body. With a webhook secret configured the x-signature header must
// match the id being acted on and carry a fresh ts, otherwise
// dompay.ErrInvalidSignature is returned. Conflicting id and data.id values are
// always rejected.
func (c *Client) ParseWebhook(_ context.Context, req apppay.WebhookRequest) (dompay.Notification, error) {
	q := req.Query
	topic, id := q.Get("topic"), q.Get("id")
	typ, dataID := q.Get("type"), q.Get("data.id")

	if topic == "" && typ == "" && len(req.Body) > 0 {
		var b webhookBody
		if err := json.Unmarshal(req.Body, &b); err == nil {
			typ = b.Type
			if typ == "" {
				typ = b.Topic
			}
			if dataID == "" {
				dataID = rawID(b.Data.ID)
			}
		}
	}

	id, dataID = strings.TrimSpace(id), strings.TrimSpace(dataID)
	if id != "" && dataID != "" && id != dataID {
		return nil, fmt.Errorf("%w: id %q and data.id %q disagree", dompay.ErrInvalidSignature, id, dataID)
	}

	note := dompay.ParseNotification(topic, id, typ, dataID)
	if c.secret != "" {
		if err := VerifySignature(c.secret, req.Header.Get(headerSignature), req.Header.Get(headerRequestID), notificationID(note)); err != nil {
			return nil, err
		}
		if err := checkFreshness(req.Header.Get(headerSignature), time.Now(), c.tolerance); err != nil {
			return nil, err
		}
	}
	return note, nil
}

// notificationID is the id the rest of the flow acts on, and so the one that
// must have been signed.
func notificationID(n dompay.Notification) string {
	switch v := n.(type) {
	case dompay.PaymentNotification:
		return v.PaymentID
	case dompay.UnknownNotification:
		return v.ID
	}
	return ""
}

// checkFreshness rejects signatures whose ts lies outside tolerance of now.
// ts is accepted in seconds or milliseconds.
func checkFreshness(header string, now time.Time, tolerance time.Duration) error {
	ts, _ := splitSignature(header)
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: ts is not a timestamp", dompay.ErrInvalidSignature)
	}
	signed := time.Unix(n, 0)
	if n > 1e12 {
		signed = time.UnixMilli(n)
	}
	if d := now.Sub(signed); d > tolerance || d < -tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", dompay.ErrInvalidSignature)
	}
	return nil
}

// rawID accepts both the numeric and the string form of data.id.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// VerifySignature checks an x-signature header of the form "ts=<ts>,v1=<hex>"
// against HMAC-SHA256 of the manifest "id:<data.id>;request-id:<id>;ts:<ts>;".
// Manifest parts that are empty are left out.
func VerifySignature(secret, header, requestID, dataID string) error {
	ts, v1 := splitSignature(header)
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed x-signature", dompay.ErrInvalidSignature)
	}
	want, err := hex.DecodeString(v1)
	if err != nil {
		return fmt.Errorf("%w: v1 is not hex", dompay.ErrInvalidSignature)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Manifest(dataID, requestID, ts)))
	if !hmac.Equal(mac.Sum(nil), want) {
		return dompay.ErrInvalidSignature
	}
	return nil
}

// Manifest builds the signed template. Alphanumeric ids are lowercased as the
// gateway does when signing.
func Manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

func splitSignature(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "ts":
			ts = strings.TrimSpace(v)
		case "v1":
			v1 = strings.TrimSpace(v)
		}
	}
	return ts, v1
}
