package mailer

import "fmt"

// OTPEmail renders the verification-code message in plain and HTML form.
func OTPEmail(name, code string, minutes int) (subject, plain, html string) {
	subject = "Your StudyFriend verification code"
	plain = fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not request this, you can ignore this email.",
		name, code, minutes,
	)
	html = fmt.Sprintf(
		`<p>Hi %s,</p><p>Your verification code is</p><h2 style="letter-spacing:4px">%s</h2><p>It expires in %d minutes.</p><p>If you did not request this, you can ignore this email.</p>`,
		name, code, minutes,
	)
	return subject, plain, html
}

// WelcomeEmail renders the post-verification welcome message.
func WelcomeEmail(name string) (subject, plain, html string) {
	subject = "Welcome to StudyFriend"
	plain = fmt.Sprintf(
		"Hi %s,\n\nYour account is verified and ready to use. Log in to explore courses, materials and tutoring sessions.",
		name,
	)
	html = fmt.Sprintf(
		`<p>Hi %s,</p><p>Your account is verified and ready to use. Log in to explore courses, materials and tutoring sessions.</p>`,
		name,
	)
	return subject, plain, html
}
