package service

import "time"

const (
	DefaultApprovedMessage = "APPROVED: You meet the criteria."
	DefaultRejectedMessage = "REJECTED: High risk flagged."
	ErrorPrefix            = "Error: "

	DefaultInferenceTimeout = 5 * time.Second

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500

	// Debt-to-income ratio above which the fallback explanation calls the loan heavy.
	HighDebtIncomeRatio = 0.05
)
