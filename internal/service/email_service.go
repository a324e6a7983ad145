package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"millionaire/internal/game"
	"millionaire/internal/models"
)

// sesAPI is the part of the SES client the service calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends player notifications via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWelcomeEmail greets a newly registered player
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Skipping welcome email to %s (service disabled)", toEmail)
		}
		return nil
	}

	subject := "Welcome to Millionaire!"
	textBody := fmt.Sprintf(`Hi %s,

Your account is ready. Fifteen questions stand between you and the top prize of %d.

Start a game: %s/games

---
This is an automated email. Please do not reply.
`, toName, game.DefaultPrizeTable.Top(), s.appBaseURL)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h1>Welcome, %s!</h1>
	<p>Fifteen questions stand between you and the top prize of <strong>%d</strong>.</p>
	<p><a href="%s/games">Start a game</a></p>
</body>
</html>
`, toName, game.DefaultPrizeTable.Top(), s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// NotifyGameResult emails a player the outcome of a finished game
func (s *EmailService) NotifyGameResult(ctx context.Context, user *models.User, result models.GameSummary) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Skipping result email for game %d (service disabled)", result.GameID)
		}
		return nil
	}

	subject, headline := resultHeadline(result)
	link := fmt.Sprintf("%s/games/%d", s.appBaseURL, result.GameID)

	textBody := fmt.Sprintf(`Hi %s,

%s

Questions answered: %d
Prize: %d
Balance: %d

Game details: %s
`, user.Name, headline, result.CurrentLevel, result.Prize, user.Balance, link)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<p>Hi %s,</p>
	<p>%s</p>
	<table>
		<tr><td>Questions answered</td><td>%d</td></tr>
		<tr><td>Prize</td><td>%d</td></tr>
		<tr><td>Balance</td><td>%d</td></tr>
	</table>
	<p><a href="%s">Game details</a></p>
</body>
</html>
`, user.Name, headline, result.CurrentLevel, result.Prize, user.Balance, link)

	return s.sendEmail(ctx, user.Email, subject, htmlBody, textBody)
}

func resultHeadline(result models.GameSummary) (string, string) {
	switch game.Status(result.Status) {
	case game.StatusWon:
		return "You won the top prize!", fmt.Sprintf("You answered every question and won %d.", result.Prize)
	case game.StatusMoney:
		return "You took the money", fmt.Sprintf("You walked away with %d.", result.Prize)
	case game.StatusTimeout:
		return "Time ran out", fmt.Sprintf("Time ran out. You keep %d.", result.Prize)
	default:
		return "Game over", fmt.Sprintf("That answer was wrong. You keep %d.", result.Prize)
	}
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s", fromAddress, toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}
	log.Printf("Email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
