package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/order"
)

// SMSRecipient 网关返回的单个收件人状态
type SMSRecipient struct {
	Number     string `json:"number"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Cost       string `json:"cost"`
	MessageID  string `json:"messageId"`
}

// SMSResponse Africa's Talking 发送接口响应
type SMSResponse struct {
	SMSMessageData struct {
		Message    string         `json:"Message"`
		Recipients []SMSRecipient `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// SMSSender 短信网关
type SMSSender interface {
	Send(ctx context.Context, message string, to []string) (*SMSResponse, error)
}

// AfricasTalkingClient 基于 gout 的 Africa's Talking 客户端
type AfricasTalkingClient struct {
	cfg *config.SMSConfig
}

func NewAfricasTalkingClient(cfg *config.SMSConfig) *AfricasTalkingClient {
	return &AfricasTalkingClient{cfg: cfg}
}

func (c *AfricasTalkingClient) Send(ctx context.Context, message string, to []string) (*SMSResponse, error) {
	form := gout.H{
		"username": c.cfg.Username,
		"to":       strings.Join(to, ","),
		"message":  message,
	}
	if c.cfg.SenderID != "" {
		form["from"] = c.cfg.SenderID
	}
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var (
		resp SMSResponse
		code int
	)
	err := gout.POST(c.cfg.Endpoint).
		WithContext(ctx).
		SetHeader(gout.H{
			"apiKey": c.cfg.APIKey,
			"Accept": "application/json",
		}).
		SetWWWForm(form).
		SetTimeout(timeout).
		Code(&code).
		BindJSON(&resp).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "sms gateway request")
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return nil, errors.Errorf("sms gateway returned http %d", code)
	}
	return &resp, nil
}

// SMSService 顾客下单确认短信
type SMSService struct {
	sender      SMSSender
	countryCode string
}

func NewSMSService(sender SMSSender, countryCode string) *SMSService {
	return &SMSService{sender: sender, countryCode: countryCode}
}

// ConfirmationMessage 下单确认短信内容
func ConfirmationMessage(o *order.Order) string {
	return fmt.Sprintf("Hi %s! Your order #%d for $%s has been confirmed. We'll notify you when it's ready for delivery. Thank you!",
		o.Customer.FirstName, o.ID, o.TotalAmount.StringFixed(2))
}

// SendOrderConfirmation 发送失败不返回 error，结果记录在 Result 中
func (s *SMSService) SendOrderConfirmation(ctx context.Context, o *order.Order) *Result {
	r := &Result{Kind: KindCustomerSMS, OrderID: o.ID, At: time.Now()}
	if o.CustomerPhone == "" {
		zap.L().Warn("no phone number for order", zap.Int64("order_id", o.ID))
		r.Error = "No phone number"
		return r
	}

	phone := FormatPhoneNumber(o.CustomerPhone, s.countryCode)
	message := ConfirmationMessage(o)
	r.Phone = phone

	resp, err := s.sender.Send(ctx, message, []string{phone})
	if err != nil {
		zap.L().Error("send order sms failed", zap.Int64("order_id", o.ID), zap.Error(err))
		r.Error = "SMS sending failed: " + err.Error()
		return r
	}

	recipients := resp.SMSMessageData.Recipients
	if len(recipients) == 0 {
		zap.L().Error("no recipients in sms response", zap.Int64("order_id", o.ID), zap.String("message", resp.SMSMessageData.Message))
		r.Error = "No recipients found in API response"
		return r
	}
	rcpt := recipients[0]
	r.Status = rcpt.Status
	if rcpt.Status != "Success" {
		zap.L().Error("sms rejected by gateway", zap.Int64("order_id", o.ID), zap.String("status", rcpt.Status), zap.String("phone", phone))
		r.Error = rcpt.Status
		r.StatusCode = rcpt.StatusCode
		return r
	}

	zap.L().Info("order sms sent", zap.Int64("order_id", o.ID), zap.String("phone", phone))
	r.Success = true
	r.Message = message
	r.Cost = rcpt.Cost
	r.MessageID = rcpt.MessageID
	return r
}
