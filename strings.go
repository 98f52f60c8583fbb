package main

// API messages. The wording is part of the contract: clients match on it, so
// changes here are breaking changes.
const (
	msgInvalidRequestData  = "Request data is invalid. Please check the data and try again."
	msgInvalidResponseData = "Response data is invalid. Please contact administrator."
	msgAuthRequired        = "Authentication required. Please login."
	msgBadCredentials      = "Incorrect email or password. Please try again."
	msgLoggedIn            = "User logged in successfully."
	msgLoggedOut           = "User logged out successfully."
	msgTokenRefreshed      = "Access token refreshed successfully."
	msgInternalError       = "An unexpected error occurred. Please try again later."
)

// resourceMsgs groups per-resource CRUD wording into one table entry.
type resourceMsgs struct {
	Created   string
	Retrieved string
	Updated   string
	Deleted   string
	NotFound  string
	Exists    string
}

var (
	userMsgs = resourceMsgs{
		Created:   "User created successfully.",
		Retrieved: "User retrieved successfully.",
		Updated:   "User updated successfully.",
		Exists:    "User already exists. Please login instead.",
	}
	tagMsgs = resourceMsgs{
		Created:   "Tag created successfully.",
		Retrieved: "Tags retrieved successfully.",
		Updated:   "Tag updated successfully.",
		Deleted:   "Tag deleted successfully.",
		NotFound:  "Tag not found.",
		Exists:    "Tag already exists.",
	}
	taskMsgs = resourceMsgs{
		Created:   "Task created successfully.",
		Retrieved: "Tasks retrieved successfully.",
		Updated:   "Task updated successfully.",
		Deleted:   "Task deleted successfully.",
		NotFound:  "Task not found.",
	}
)
