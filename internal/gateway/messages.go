package gateway

// Success sentences shown after each operation.
const (
	RegisterSuccessMessage  = "Account created successfully! You can now sign in."
	LoginSuccessMessage     = "Login successful! Redirecting..."
	FederatedSuccessMessage = "Signed in with Google! Redirecting..."
	ResetSuccessMessage     = "Password reset email sent! Please check your inbox."
)

const networkMessage = "Network error. Please check your internet connection."
const invalidEmailMessage = "Please enter a valid email address."

var genericMessages = map[Op]string{
	OpRegister:  "Failed to create account. Please try again.",
	OpLogin:     "Login failed. Please check your credentials.",
	OpFederated: "Google sign-in failed. Please try again.",
	OpReset:     "Failed to send reset email. Please try again.",
}

var failureMessages = map[Op]map[Reason]string{
	OpRegister: {
		ReasonInvalidInput:       "Please fill in all required fields.",
		ReasonWeakPassword:       "Password must be at least 6 characters long.",
		ReasonInvalidName:        "Please enter your full name.",
		ReasonEmailTaken:         "This email is already registered. Please sign in instead.",
		ReasonInvalidEmail:       invalidEmailMessage,
		ReasonNetworkUnavailable: networkMessage,
	},
	OpLogin: {
		ReasonInvalidInput:       "Please fill in all fields.",
		ReasonNotFound:           "No account found with this email. Please sign up first.",
		ReasonWrongCredential:    "Incorrect password. Please try again.",
		ReasonInvalidCredential:  "Invalid credentials. Please check your email and password.",
		ReasonInvalidEmail:       invalidEmailMessage,
		ReasonTooManyAttempts:    "Too many failed attempts. Please try again later.",
		ReasonNetworkUnavailable: networkMessage,
	},
	OpFederated: {
		ReasonInteractionCancelled: "Google sign-in was cancelled.",
		ReasonInteractionBlocked:   "Google sign-in could not be completed. Please try again.",
		ReasonNetworkUnavailable:   networkMessage,
	},
	OpReset: {
		ReasonInvalidInput:       "Please enter your email address first.",
		ReasonNotFound:           "No account found with this email address.",
		ReasonInvalidEmail:       invalidEmailMessage,
		ReasonNetworkUnavailable: networkMessage,
	},
}

// providerMessages override failureMessages when the provider, rather than
// local validation, reported the reason.
var providerMessages = map[Op]map[Reason]string{
	OpRegister: {
		ReasonWeakPassword: "Password is too weak. Please choose a stronger password.",
	},
}

// FailureMessage returns the fixed sentence for (op, reason), falling back
// to the operation's generic sentence.
func FailureMessage(op Op, reason Reason) string {
	if msg, ok := failureMessages[op][reason]; ok {
		return msg
	}
	if msg, ok := genericMessages[op]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}
