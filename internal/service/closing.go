package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"dryshift/internal/model"
	"dryshift/internal/repository"
)

// ErrInvalidClosingData 结班数据与班次类型不符或数值非法
var ErrInvalidClosingData = errors.New("结班数据无效")

const (
	maxResultsLength = 2000
	maxAmountDigits  = 12 // numeric(14,2) 的整数位
)

var maxAmount = decimal.New(1, maxAmountDigits)

// ClosingData 结班数据；每种班次类型对应一种实现
type ClosingData interface {
	Kind() model.WorkKind
	validate() error
	apply(f *repository.CloseFields)
}

// ProductionResult 生产班次：自由文本结果
type ProductionResult struct {
	Text string
}

// PackagingResult 包装班次：包数
type PackagingResult struct {
	Packages int
}

// SalesResult 销售班次：包数与金额
type SalesResult struct {
	Packages int
	Amount   decimal.Decimal
}

func (ProductionResult) Kind() model.WorkKind { return model.WorkKindProduction }
func (PackagingResult) Kind() model.WorkKind  { return model.WorkKindPackaging }
func (SalesResult) Kind() model.WorkKind      { return model.WorkKindSales }

func (r ProductionResult) validate() error {
	text := strings.TrimSpace(r.Text)
	if text == "" || utf8.RuneCountInString(text) > maxResultsLength {
		return ErrInvalidClosingData
	}
	return nil
}

func (r PackagingResult) validate() error {
	if r.Packages < 0 {
		return ErrInvalidClosingData
	}
	return nil
}

func (r SalesResult) validate() error {
	if r.Packages < 0 || r.Amount.IsNegative() || r.Amount.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidClosingData
	}
	// 金额最多两位小数
	if !r.Amount.Equal(r.Amount.Truncate(2)) {
		return ErrInvalidClosingData
	}
	return nil
}

func (r ProductionResult) apply(f *repository.CloseFields) {
	text := strings.TrimSpace(r.Text)
	f.Results = &text
}

func (r PackagingResult) apply(f *repository.CloseFields) {
	n := r.Packages
	f.PackagesCount = &n
}

func (r SalesResult) apply(f *repository.CloseFields) {
	n := r.Packages
	f.PackagesCount = &n
	f.SalesAmount = decimal.NewNullDecimal(r.Amount)
}

// checkClosingData 校验结班数据与班次类型匹配
func checkClosingData(kind model.WorkKind, data ClosingData) error {
	if data == nil || data.Kind() != kind {
		return ErrInvalidClosingData
	}
	return data.validate()
}
