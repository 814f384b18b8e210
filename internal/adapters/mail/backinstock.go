// Package mail sends the storefront's transactional email over SMTP
// configured from the environment.
package mail

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/hdnguyen-vn/keymart/internal/domain"
)

type Sender struct {
	host string
	port int
	user string
	pass string
	from string
	base string
}

// NewFromEnv reads SMTP_* and BASE_URL. With no SMTP host configured the
// sender degrades to a warn-and-skip no-op, same as the rest of the optional
// integrations.
func NewFromEnv() *Sender {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &Sender{
		host: os.Getenv("SMTP_HOST"),
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: from,
		base: base,
	}
}

func (s *Sender) SendBackInStock(ctx context.Context, n domain.StockNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.host == "" {
		log.Warn().Str("email", n.Email).Msg("SMTP chưa cấu hình, bỏ qua email hàng về")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", fmt.Sprintf("%s - %s đã có hàng trở lại", n.ProductName, n.VariantName))
	m.SetBody("text/plain", fmt.Sprintf(
		"Chào bạn,\n\nSản phẩm %s (%s) bạn quan tâm đã có hàng trở lại.\n\nĐặt mua ngay: %s/products/%s\n\nKeymart",
		n.ProductName, n.VariantName, s.base, n.ProductSlug,
	))

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send back-in-stock to %s: %w", n.Email, err)
	}
	return nil
}
