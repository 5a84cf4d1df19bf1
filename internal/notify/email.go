package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/user"
)

// Mailer 邮件发送
type Mailer interface {
	Send(ctx context.Context, from string, to []string, subject, body string) error
}

// SMTPMailer 基于 gomail 的 SMTP 实现
type SMTPMailer struct {
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg *config.MailConfig) *SMTPMailer {
	return &SMTPMailer{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

func (m *SMTPMailer) Send(_ context.Context, from string, to []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return errors.Wrap(m.dialer.DialAndSend(msg), "smtp send")
}

// EmailService 新订单管理员通知
type EmailService struct {
	mailer Mailer
	users  user.Repository
	from   string
}

func NewEmailService(mailer Mailer, users user.Repository, from string) *EmailService {
	return &EmailService{mailer: mailer, users: users, from: from}
}

// AdminNotificationContent 返回邮件标题与正文
func AdminNotificationContent(o *order.Order) (string, string) {
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("- %s x %d = $%s", it.Product.Name, it.Quantity, it.Subtotal().StringFixed(2)))
	}
	subject := fmt.Sprintf("New Order #%d - $%s", o.ID, o.TotalAmount.StringFixed(2))

	var b strings.Builder
	b.WriteString("New order has been placed!\n\n")
	b.WriteString("Order Details:\n")
	fmt.Fprintf(&b, "- Order ID: #%d\n", o.ID)
	fmt.Fprintf(&b, "- Customer: %s %s\n", o.Customer.FirstName, o.Customer.LastName)
	fmt.Fprintf(&b, "- Email: %s\n", o.CustomerEmail)
	fmt.Fprintf(&b, "- Phone: %s\n", o.CustomerPhone)
	fmt.Fprintf(&b, "- Total Amount: $%s\n", o.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "- Items: %d\n\n", o.TotalItems())
	b.WriteString("Items Ordered:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nDelivery Address:\n")
	b.WriteString(o.DeliveryAddress)
	fmt.Fprintf(&b, "\n\nOrder placed at: %s\n\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("Please process this order promptly.\n")
	return subject, b.String()
}

// SendAdminNotification 一封邮件发给全部启用中的管理员
func (s *EmailService) SendAdminNotification(ctx context.Context, o *order.Order) *Result {
	r := &Result{Kind: KindAdminEmail, OrderID: o.ID, At: time.Now()}
	admins, err := s.users.ListActiveAdminEmails(ctx)
	if err != nil {
		zap.L().Error("list admin emails failed", zap.Int64("order_id", o.ID), zap.Error(err))
		r.Error = "Email sending failed: " + err.Error()
		return r
	}
	if len(admins) == 0 {
		zap.L().Warn("no admin emails found", zap.Int64("order_id", o.ID))
		r.Error = "No admin emails"
		return r
	}

	subject, body := AdminNotificationContent(o)
	if err := s.mailer.Send(ctx, s.from, admins, subject, body); err != nil {
		zap.L().Error("send admin notification failed", zap.Int64("order_id", o.ID), zap.Error(err))
		r.Error = "Email sending failed: " + err.Error()
		return r
	}

	zap.L().Info("admin email sent", zap.Int64("order_id", o.ID), zap.Int("recipients", len(admins)))
	r.Success = true
	r.Recipients = len(admins)
	return r
}
