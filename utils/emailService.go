package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"reportsync/config"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Progress Reports <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by all notification mails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #00004D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #00004D; line-height: 1.6; }
			.content h2 { color: #00004D; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>PROGRESS REPORTS</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				Automated message from the course progress sync service.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// SendSyncFailureEmail alerts the operator when a reconciliation run ends
// with errors. The first few error lines are enough to triage; the full
// list lives in the checkpoint rows and run log.
func SendSyncFailureEmail(to, runID string, errs []string) {
	shown := errs
	if len(shown) > 10 {
		shown = shown[:10]
	}

	body := fmt.Sprintf(`
		<p>Sync run <b>%s</b> finished with <b>%d</b> error(s).</p>
		<div class="info-box"><pre>%s</pre></div>
		<p>Check the sync status endpoint for per-company checkpoint details.</p>
	`, runID, len(errs), strings.Join(shown, "\n"))

	if err := SendEmail([]string{to}, "Progress sync run failed", getEmailTemplate("Sync Run Failed", body)); err != nil {
		fmt.Println("Error sending sync failure alert:", err)
	}
}
