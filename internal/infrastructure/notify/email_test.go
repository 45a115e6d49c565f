package notify

import (
	"context"
	"errors"
	"testing"

	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (s *fakeSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	s.sent = append(s.sent, msgs...)
	return s.err
}

func TestEmailNotify(t *testing.T) {
	s := &fakeSender{}
	e := &Email{client: s, from: "alerts@escabi.test", to: []string{"ops@escabi.test"}}
	a := dominv.NewAlert("a1", "p1", "Fernet", 4, 10)

	require.NoError(t, e.Notify(context.Background(), *a))
	require.Len(t, s.sent, 1)
	assert.Equal(t, []string{"[EscabiAPI] Low stock: Fernet"}, s.sent[0].GetGenHeader(mail.HeaderSubject))

	s.err = errors.New("421 try later")
	assert.Error(t, e.Notify(context.Background(), *a))
}

func TestEmailRejectsBadAddress(t *testing.T) {
	e := &Email{client: &fakeSender{}, from: "not an address", to: []string{"ops@escabi.test"}}
	assert.Error(t, e.Notify(context.Background(), *dominv.NewAlert("a1", "p1", "Fernet", 4, 10)))
}

func TestNewEmailRequiresRecipient(t *testing.T) {
	_, err := NewEmail(SMTPConfig{Host: "smtp.escabi.test"})
	assert.Error(t, err)
}
