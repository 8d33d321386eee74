// Package ui holds the console confirmations for destructive commands.
package ui
