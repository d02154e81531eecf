package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/example/ec-shop-api/internal/events"
)

// Service sends HTML mail through a plain SMTP relay.
type Service struct {
	host string
	port string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// SendOrderConfirmation mails the receipt for a freshly placed order.
func (s *Service) SendOrderConfirmation(to, name string, o events.OrderPlaced) error {
	body, err := BuildOrderConfirmationBody(name, o)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order confirmation %s", o.OrderNumber)
	return s.deliver(to, subject, body)
}

// SendStatusUpdate tells the customer their order moved to a new status.
func (s *Service) SendStatusUpdate(to, name string, c events.OrderStatusChanged) error {
	body, err := BuildStatusUpdateBody(name, c)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Your order %s is now %s", c.OrderNumber, c.To)
	return s.deliver(to, subject, body)
}

func (s *Service) deliver(to, subject, body string) error {
	if strings.ContainsAny(to+subject, "\r\n") {
		return fmt.Errorf("header injection in mail to %q", to)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
