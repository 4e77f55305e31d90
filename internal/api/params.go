package api

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/apierrors"
	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/tokens"
	"github.com/itsib/0x-swap-api/internal/types"
)

var one = decimal.NewFromInt(1)

// fieldErrors collects validation failures so a request reports all of
// them at once.
type fieldErrors []apierrors.FieldError

func (f *fieldErrors) add(field string, code apierrors.FieldCode, reason string) {
	*f = append(*f, apierrors.FieldError{Field: field, Code: code, Reason: reason})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apierrors.NewValidationError(f...)
}

func (h *SwapHandler) parseSwapParams(c *fiber.Ctx, endpoint string) (*types.SwapParams, error) {
	var errs fieldErrors

	sellRaw, buyRaw := c.Query("sellToken"), c.Query("buyToken")
	if sellRaw == "" {
		errs.add("sellToken", apierrors.RequiredField, "requires property \"sellToken\"")
	}
	if buyRaw == "" {
		errs.add("buyToken", apierrors.RequiredField, "requires property \"buyToken\"")
	}

	sellAmount := parseAmount(c, "sellAmount", &errs)
	buyAmount := parseAmount(c, "buyAmount", &errs)
	switch {
	case c.Query("sellAmount") == "" && c.Query("buyAmount") == "":
		errs.add("sellAmount", apierrors.RequiredField, "requires property \"sellAmount\" or \"buyAmount\"")
	case c.Query("sellAmount") != "" && c.Query("buyAmount") != "":
		errs.add("buyAmount", apierrors.IncorrectFormat, "only one of \"sellAmount\" or \"buyAmount\" can be set")
	}
	gasPrice := parseAmount(c, "gasPrice", &errs)
	taker := parseAddress(c, "takerAddress", &errs)
	affiliate := parseAddress(c, "affiliateAddress", &errs)

	slippage := h.defaults.SlippagePercentage
	if raw := c.Query("slippagePercentage"); raw != "" {
		d, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs.add("slippagePercentage", apierrors.IncorrectFormat, "must be a number")
		case d.GreaterThan(one) || d.IsNegative():
			errs.add("slippagePercentage", apierrors.ValueOutOfRange, apierrors.ReasonPercentageOutOfRange)
		default:
			slippage = d
		}
	}

	excluded, included := parseSourceLists(c, &errs)
	if len(excluded) > 0 && allExcluded(h.chain.EnabledSources, excluded) {
		errs.add("excludedSources", apierrors.ValueOutOfRange, "Request excluded all sources")
	}
	fee := parseAffiliateFee(c, &errs)

	if err := errs.err(); err != nil {
		return nil, err
	}

	isNativeSell := h.tokens.IsNative(sellRaw)
	isNativeBuy := h.tokens.IsNative(buyRaw)
	resolved, err := h.tokens.ResolveMany(c.UserContext(), sellRaw, buyRaw)
	if err != nil {
		return nil, tokenError(err, sellRaw, buyRaw)
	}
	sellToken, buyToken := resolved[0].Address, resolved[1].Address

	isWrap := isNativeSell && h.tokens.IsWrappedNative(buyToken.Hex())
	isUnwrap := h.tokens.IsWrappedNative(sellToken.Hex()) && isNativeBuy
	if !isWrap && !isUnwrap && sellToken == buyToken {
		return nil, apierrors.NewValidationError(
			apierrors.FieldError{Field: "buyToken", Code: apierrors.RequiredField, Reason: "buyToken and sellToken must be different"},
			apierrors.FieldError{Field: "sellToken", Code: apierrors.RequiredField, Reason: "buyToken and sellToken must be different"},
		)
	}
	if sellToken == (common.Address{}) || buyToken == (common.Address{}) {
		return nil, apierrors.NewValidationError(
			apierrors.FieldError{Field: "buyToken", Code: apierrors.FieldInvalid, Reason: "Invalid token combination"},
			apierrors.FieldError{Field: "sellToken", Code: apierrors.FieldInvalid, Reason: "Invalid token combination"},
		)
	}

	h.logger.Info("swapRequest",
		zap.String("endpoint", endpoint),
		zap.Strings("excludedSources", sourceNames(excluded)),
		zap.String("request_id", requestID(c)),
	)

	return &types.SwapParams{
		SellToken:               sellToken,
		BuyToken:                buyToken,
		SellAmount:              sellAmount,
		BuyAmount:               buyAmount,
		TakerAddress:            taker,
		GasPrice:                gasPrice,
		SlippagePercentage:      slippage,
		ExcludedSources:         excluded,
		IncludedSources:         included,
		AffiliateAddress:        affiliate,
		AffiliateFee:            fee,
		IncludePriceComparisons: c.Query("includePriceComparisons") == "true",
		SkipValidation:          c.Query("skipValidation") == "true",
		ShouldSellEntireBalance: c.Query("shouldSellEntireBalance") == "true",
		IsWrap:                  isWrap,
		IsUnwrap:                isUnwrap,
		IsETHSell:               isNativeSell,
		IsETHBuy:                isNativeBuy,
	}, nil
}

func (h *SwapHandler) parseDepthParams(c *fiber.Ctx) (*types.DepthParams, error) {
	var errs fieldErrors

	// all native trades are for the wrapped token internally
	sellRaw, buyRaw := c.Query("sellToken"), c.Query("buyToken")
	if h.tokens.IsNative(sellRaw) {
		sellRaw = h.tokens.Wrapped().Symbol
	}
	if h.tokens.IsNative(buyRaw) {
		buyRaw = h.tokens.Wrapped().Symbol
	}
	if sellRaw == "" {
		errs.add("sellToken", apierrors.RequiredField, "requires property \"sellToken\"")
	}
	if buyRaw == "" {
		errs.add("buyToken", apierrors.RequiredField, "requires property \"buyToken\"")
	}
	if sellRaw != "" && strings.EqualFold(sellRaw, buyRaw) {
		errs.add("buyToken", apierrors.InvalidAddress, fmt.Sprintf("Invalid pair %s/%s", sellRaw, buyRaw))
	}

	sellAmount := parseAmount(c, "sellAmount", &errs)
	if c.Query("sellAmount") == "" {
		errs.add("sellAmount", apierrors.RequiredField, "requires property \"sellAmount\"")
	}

	numSamples := h.defaults.DepthMaxSamples
	if raw := c.Query("numSamples"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.add("numSamples", apierrors.IncorrectFormat, "must be an integer")
		case n < 1 || n > h.defaults.DepthMaxSamples:
			errs.add("numSamples", apierrors.ValueOutOfRange, fmt.Sprintf("must be between 1 and %d", h.defaults.DepthMaxSamples))
		default:
			numSamples = n
		}
	}
	base := h.defaults.SampleDistributionBase
	if raw := c.Query("sampleDistributionBase"); raw != "" {
		d, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs.add("sampleDistributionBase", apierrors.IncorrectFormat, "must be a number")
		case !d.IsPositive():
			errs.add("sampleDistributionBase", apierrors.ValueOutOfRange, "must be positive")
		default:
			base = d
		}
	}
	excluded, included := parseSourceLists(c, &errs)

	if err := errs.err(); err != nil {
		return nil, err
	}

	resolved, err := h.tokens.ResolveMany(c.UserContext(), sellRaw, buyRaw)
	if err != nil {
		return nil, tokenError(err, sellRaw, buyRaw)
	}
	return &types.DepthParams{
		SellToken:              resolved[0].Address,
		BuyToken:               resolved[1].Address,
		SellAmount:             sellAmount,
		NumSamples:             numSamples,
		SampleDistributionBase: base,
		ExcludedSources:        excluded,
		IncludedSources:        included,
	}, nil
}

// parseAmount reads a positive base-10 integer; nil when absent.
func parseAmount(c *fiber.Ctx, field string, errs *fieldErrors) *big.Int {
	raw := c.Query(field)
	if raw == "" {
		return nil
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		errs.add(field, apierrors.IncorrectFormat, "must be an integer")
		return nil
	}
	if n.Sign() <= 0 {
		errs.add(field, apierrors.ValueOutOfRange, "must be greater than 0")
		return nil
	}
	return n
}

func parseAddress(c *fiber.Ctx, field string, errs *fieldErrors) *common.Address {
	raw := c.Query(field)
	if raw == "" {
		return nil
	}
	if !common.IsHexAddress(raw) {
		errs.add(field, apierrors.InvalidAddress, "must be a valid address")
		return nil
	}
	if err := tokens.ValidAddress(raw); err != nil {
		errs.add(field, apierrors.InvalidAddress, "must be a valid address")
		return nil
	}
	a := common.HexToAddress(raw)
	return &a
}

func parseSourceLists(c *fiber.Ctx, errs *fieldErrors) (excluded, included []sources.Source) {
	var err error
	if raw := c.Query("excludedSources"); raw != "" {
		if excluded, err = sources.ParseList(raw); err != nil {
			errs.add("excludedSources", apierrors.IncorrectFormat, err.Error())
		}
	}
	if raw := c.Query("includedSources"); raw != "" {
		if included, err = sources.ParseList(raw); err != nil {
			errs.add("includedSources", apierrors.IncorrectFormat, err.Error())
		}
	}
	if len(excluded) > 0 && len(included) > 0 {
		errs.add("excludedSources", apierrors.IncorrectFormat, "cannot combine excludedSources and includedSources")
	}
	return excluded, included
}

// parseAffiliateFee reads feeRecipient, buyTokenPercentageFee and feeType.
// Sell token fees are not supported.
func parseAffiliateFee(c *fiber.Ctx, errs *fieldErrors) types.AffiliateFee {
	var fee types.AffiliateFee
	if raw := c.Query("sellTokenPercentageFee"); raw != "" {
		if d, err := decimal.NewFromString(raw); err != nil || !d.IsZero() {
			errs.add("sellTokenPercentageFee", apierrors.UnsupportedOption, "ArgumentNotYetSupported")
		}
	}
	if raw := c.Query("buyTokenPercentageFee"); raw != "" {
		d, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs.add("buyTokenPercentageFee", apierrors.IncorrectFormat, "must be a number")
		case d.GreaterThanOrEqual(one) || d.IsNegative():
			errs.add("buyTokenPercentageFee", apierrors.ValueOutOfRange, "must be less than one")
		default:
			fee.BuyTokenPercentageFee = d
		}
	}
	if r := parseAddress(c, "feeRecipient", errs); r != nil {
		fee.Recipient = *r
	}

	switch c.Query("feeType") {
	case "", "percentage":
		if fee.BuyTokenPercentageFee.IsPositive() {
			fee.FeeType = types.FeePercentage
		}
	case "positive_slippage":
		fee.FeeType = types.FeePositiveSlippage
		if fee.Recipient == (common.Address{}) {
			errs.add("feeRecipient", apierrors.RequiredField, "required for positive_slippage fees")
		}
	default:
		errs.add("feeType", apierrors.UnsupportedOption, "must be percentage or positive_slippage")
	}
	return fee
}

func allExcluded(enabled, excluded []sources.Source) bool {
	ex := sources.FlagsOf(excluded...)
	for _, s := range enabled {
		if !ex.Has(s) {
			return false
		}
	}
	return true
}

// tokenError maps an unresolvable token to its request field.
func tokenError(err error, sellRaw, buyRaw string) error {
	var nf *tokens.NotFoundError
	if !errors.As(err, &nf) {
		return err
	}
	field := "buyToken"
	if nf.Input == sellRaw {
		field = "sellToken"
	}
	return apierrors.Field(field, apierrors.ValueOutOfRange, nf.Error())
}

func sourceNames(srcs []sources.Source) []string {
	out := make([]string, len(srcs))
	for i, s := range srcs {
		out[i] = s.DisplayName()
	}
	return out
}

func addrString(a *common.Address) string {
	if a == nil {
		return ""
	}
	return strings.ToLower(a.Hex())
}

func bigString(x *big.Int) string {
	if x == nil {
		return ""
	}
	return x.String()
}
