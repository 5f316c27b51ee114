// Package fee holds the fixed membership fee table.
package fee

import (
	"fmt"
	"math"

	"github.com/communitylink/membership-api/internal/model"
)

// MinimumInstallment is the smallest upfront portion accepted on an installment plan, in cents.
const MinimumInstallment int64 = 300_00

type key struct {
	category model.MembershipCategory
	mtype    model.MembershipType
}

// amounts in cents
var table = map[key]int64{
	{model.CategoryGeneral, model.TypeSingle}: 100_00,
	{model.CategoryGeneral, model.TypeFamily}: 150_00,
	{model.CategoryLife, model.TypeSingle}:    1000_00,
	{model.CategoryLife, model.TypeFamily}:    1500_00,
}

// Fee returns the membership fee in cents. Callers must pass a valid
// (category, type) pair; anything else is a programming error and panics.
func Fee(category model.MembershipCategory, mtype model.MembershipType) int64 {
	amount, ok := table[key{category, mtype}]
	if !ok {
		panic(fmt.Sprintf("fee: undefined combination %q/%q", category, mtype))
	}
	return amount
}

// ChargeNow returns the amount collected at registration and the balance left
// for later collection.
func ChargeNow(total int64, paymentType model.PaymentType, installment int64) (charge int64, remaining int64) {
	if paymentType == model.PaymentInstallments {
		return installment, total - installment
	}
	return total, 0
}

// ToCents converts a dollar amount from the HTTP boundary, rounding to the nearest cent.
func ToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

func ToDollars(cents int64) float64 {
	return float64(cents) / 100
}
