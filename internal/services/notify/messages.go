// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package notify

import "fmt"

// RegisterCodeMessage builds the registration code email.
func RegisterCodeMessage(code string) (subject, body string) {
	return "PostPin registration",
		fmt.Sprintf("Your verification code is %s. It is valid for 5 minutes, do not share it with anyone.", code)
}

// ResetCodeMessage builds the password reset code email.
func ResetCodeMessage(code string) (subject, body string) {
	return "PostPin password reset",
		fmt.Sprintf("Your password reset code is %s. It is valid for 10 minutes, do not share it with anyone.", code)
}

// PhoneCodeMessage builds the phone login code message.
func PhoneCodeMessage(code string) (subject, body string) {
	return "PostPin login",
		fmt.Sprintf("Your login code is %s. It is valid for 5 minutes.", code)
}
