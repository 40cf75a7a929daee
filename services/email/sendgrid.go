package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/nkashama/duetrack/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return &sendgridService{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc sendgridService) sendMessage(msg *core.EmailMessage) {
	if msg.HasRecipients() && msg.HasContent() {
		svc.send(*msg)
	}
}

func (svc sendgridService) send(msg core.EmailMessage) {
	sgm := new(sgmail.SGMailV3)
	sgm.SetFrom(svc.from)
	sgm.Subject = svc.subjPrefix + msg.Subject

	pers := sgmail.NewPersonalization()
	for _, addr := range msg.To {
		pers.AddTos(svc.toSGEmail(addr))
	}
	for _, addr := range msg.Cc {
		pers.AddCCs(svc.toSGEmail(addr))
	}
	for _, addr := range msg.Bcc {
		pers.AddBCCs(svc.toSGEmail(addr))
	}
	sgm.AddPersonalizations(pers)
	sgm.AddContent(sgmail.NewContent("text/plain", msg.BodyStr))

	request := sendgrid.GetRequest(svc.key, endpoint, host)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(sgm)
	resp, err := sendgrid.API(request)
	if err != nil {
		svc.logger.Error("failed to send email", err)
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		svc.logger.Error(
			fmt.Sprintf("failed to send email: sendgrid responded %d", resp.StatusCode),
			map[string]interface{}{"body": resp.Body},
		)
	}
}

func (svc sendgridService) toSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
