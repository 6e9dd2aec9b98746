/*
alerts.go - Expiry and stock alerting over issuances and inventory

PURPOSE:
  Safety teams review two lists daily: equipment in the field about to
  expire, and equipment already expired. Both are pure filters over
  issuance expiry dates, thresholded by the validity classifier so that
  "expiring soon" here means exactly what "pending" means on a training
  certificate.

Only open issuances alert. Returned equipment is out of the field.
*/
package epi

import (
	"time"

	"github.com/vitaehr/prontuario-engine/validity"
)

// =============================================================================
// EXPIRY ALERTS
// =============================================================================

// ExpiringSoon filters open issuances whose expiry classifies as Pending
// within the given window.
func ExpiringSoon(issuances []*Issuance, withinDays int, now time.Time) []*Issuance {
	return filterByStatus(issuances, withinDays, now, validity.StatusPending)
}

// Expired filters open issuances whose expiry has passed.
func Expired(issuances []*Issuance, now time.Time) []*Issuance {
	return filterByStatus(issuances, validity.DefaultWarningWindowDays, now, validity.StatusExpired)
}

func filterByStatus(issuances []*Issuance, withinDays int, now time.Time, want validity.Status) []*Issuance {
	var out []*Issuance
	for _, iss := range issuances {
		if iss.Status != IssuanceIssued {
			continue
		}
		status, err := validity.Classify(iss.ExpiresAt, now, withinDays)
		if err != nil {
			continue // unstamped expiry: nothing to alert on
		}
		if status == want {
			out = append(out, iss)
		}
	}
	return out
}

// =============================================================================
// STOCK ALERTS
// =============================================================================

// LowStockItems filters inventory down to items at or below minimum,
// including those fully out of stock.
func LowStockItems(items []*Item) []*Item {
	var out []*Item
	for _, item := range items {
		if s := item.Status(); s == StockLow || s == StockOut {
			out = append(out, item)
		}
	}
	return out
}

// ExpiredCertifications filters items whose CA (regulator certification)
// has lapsed. Items without a valid CA must not be issued.
func ExpiredCertifications(items []*Item, now time.Time) []*Item {
	var out []*Item
	for _, item := range items {
		status, err := validity.Classify(item.CAExpiry, now, validity.DefaultWarningWindowDays)
		if err != nil {
			continue
		}
		if status == validity.StatusExpired {
			out = append(out, item)
		}
	}
	return out
}
