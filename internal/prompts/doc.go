// Package prompts renders named message templates for POST /prompt.
package prompts
