// internal/dlmm/gateway/normalize.go

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/dlmm-bot/internal/dlmm"
)

// Разные версии SDK называют одни и те же поля по-разному.
// Весь перебор вариантов живет здесь, ядро видит только dlmm.*.
var (
	keysPositionID = []string{"positionId", "position", "publicKey", "address", "id"}
	keysLowerBin   = []string{"lowerBinId", "lower_bin_id", "minBinId", "lowerBin"}
	keysUpperBin   = []string{"upperBinId", "upper_bin_id", "maxBinId", "upperBin"}
	keysActiveBin  = []string{"activeBinId", "activeId", "active_id", "binId"}
	keysBinID      = []string{"binId", "bin_id", "id"}
	keysAmountX    = []string{"positionXAmount", "amountX", "xAmount", "amount_x"}
	keysAmountY    = []string{"positionYAmount", "amountY", "yAmount", "amount_y"}
	keysTotalX     = []string{"totalXAmount", "totalX", "total_x_amount"}
	keysTotalY     = []string{"totalYAmount", "totalY", "total_y_amount"}
	keysFeeX       = []string{"feeX", "unclaimedFeeX", "feeXAmount", "fee_x"}
	keysFeeY       = []string{"feeY", "unclaimedFeeY", "feeYAmount", "fee_y"}
	keysSignature  = []string{"signature", "txid", "txSignature", "tx"}
	keysDepositUSD = []string{"depositUsd", "depositUSD", "deposit_usd", "valueUsd"}
)

var (
	errMissingField    = errors.New("missing field")
	errMalformedAmount = errors.New("malformed amount")
)

// 2^53: дальше float64 теряет целые
const maxExactFloat = 1 << 53

type rawObject map[string]interface{}

func (o rawObject) value(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (o rawObject) str(keys ...string) string {
	v, ok := o.value(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case map[string]interface{}:
		// {"publicKey": "..."} вместо строки
		return rawObject(t).str("publicKey", "address", "mint")
	}
	return ""
}

func (o rawObject) int64(keys ...string) (int64, bool) {
	v, ok := o.value(keys...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	case float64:
		return int64(t), true
	}
	return 0, false
}

func (o rawObject) bin(keys ...string) (int32, bool) {
	n, ok := o.int64(keys...)
	if !ok || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

// amount - raw base units; SDK отдает их строками (BN) или числами.
// Отсутствующее поле - 0. Дробные, отрицательные и не влезающие в uint64
// значения - ошибка: подставлять 0 вместо реальной суммы нельзя.
func (o rawObject) amount(keys ...string) (uint64, error) {
	v, ok := o.value(keys...)
	if !ok {
		return 0, nil
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	case map[string]interface{}:
		// {"amount": "..."} или {"raw": "..."}
		return rawObject(t).amount("amount", "raw", "value")
	default:
		return 0, fmt.Errorf("%w: %s has type %T", errMalformedAmount, keys[0], v)
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	if strings.HasPrefix(s, "0x") {
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return n, nil
		}
	}
	// "1500.0" или "1.5e3" - только целые значения в пределах точности float64
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= maxExactFloat && f == math.Trunc(f) {
		return uint64(f), nil
	}
	return 0, fmt.Errorf("%w: %s=%q", errMalformedAmount, keys[0], s)
}

// amountReader запоминает первую ошибку разбора, чтобы не проверять каждое поле
type amountReader struct {
	err error
}

func (r *amountReader) read(o rawObject, keys ...string) uint64 {
	n, err := o.amount(keys...)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n
}

func (o rawObject) float(keys ...string) float64 {
	v, ok := o.value(keys...)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}

func (o rawObject) boolean(def bool, keys ...string) bool {
	v, ok := o.value(keys...)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func (o rawObject) obj(keys ...string) rawObject {
	v, ok := o.value(keys...)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return rawObject(m)
}

func (o rawObject) list(keys ...string) []interface{} {
	v, ok := o.value(keys...)
	if !ok {
		return nil
	}
	l, _ := v.([]interface{})
	return l
}

func normalizePool(address string, o rawObject) (*dlmm.PoolMetadata, error) {
	p := &dlmm.PoolMetadata{Address: o.str("address", "publicKey", "lbPair", "pool")}
	if p.Address == "" {
		p.Address = address
	}

	tokenX, tokenY := o.obj("tokenX", "token_x"), o.obj("tokenY", "token_y")
	p.MintX = o.str("mintX", "tokenXMint", "mint_x")
	p.MintY = o.str("mintY", "tokenYMint", "mint_y")
	if p.MintX == "" && tokenX != nil {
		p.MintX = tokenX.str("mint", "publicKey", "address")
	}
	if p.MintY == "" && tokenY != nil {
		p.MintY = tokenY.str("mint", "publicKey", "address")
	}
	if p.MintX == "" || p.MintY == "" {
		return nil, fmt.Errorf("pool %s: token mints: %w", address, errMissingField)
	}

	decX, okX := o.int64("decimalsX", "tokenXDecimals", "decimals_x")
	if !okX && tokenX != nil {
		decX, okX = tokenX.int64("decimals")
	}
	decY, okY := o.int64("decimalsY", "tokenYDecimals", "decimals_y")
	if !okY && tokenY != nil {
		decY, okY = tokenY.int64("decimals")
	}
	if !okX || !okY {
		return nil, fmt.Errorf("pool %s: token decimals: %w", address, errMissingField)
	}
	p.DecimalsX, p.DecimalsY = uint8(decX), uint8(decY)

	if step, ok := o.int64("binStep", "bin_step"); ok {
		p.BinStep = uint16(step)
	}

	active, ok := o.bin(keysActiveBin...)
	if !ok {
		if ab := o.obj("activeBin"); ab != nil {
			active, ok = ab.bin(keysBinID...)
		}
	}
	if !ok {
		return nil, fmt.Errorf("pool %s: active bin: %w", address, errMissingField)
	}
	p.ActiveBin = active

	// бины ниже активного держат только Y, поэтому резерв (SOL) обязан быть Y
	sol := solana.SolMint.String()
	switch sol {
	case p.MintY:
		p.ReserveIsX = false
	case p.MintX:
		return nil, fmt.Errorf("pool %s: SOL is token X: %w", address, dlmm.ErrUnsupportedPool)
	default:
		return nil, fmt.Errorf("pool %s has no native SOL side: %w", address, dlmm.ErrUnsupportedPool)
	}
	return p, nil
}

func normalizeActiveBin(o rawObject) (int32, error) {
	if bin, ok := o.bin(keysActiveBin...); ok {
		return bin, nil
	}
	if ab := o.obj("activeBin"); ab != nil {
		if bin, ok := ab.bin(keysBinID...); ok {
			return bin, nil
		}
	}
	return 0, fmt.Errorf("active bin: %w", errMissingField)
}

func normalizePosition(positionID string, o rawObject, observedAt time.Time) (*dlmm.PositionSnapshot, error) {
	data := o
	if inner := o.obj("positionData", "position_data"); inner != nil {
		data = inner
	}

	s := &dlmm.PositionSnapshot{
		PositionID: o.str(keysPositionID...),
		Pool:       o.str("lbPair", "pool", "poolAddress"),
		ObservedAt: observedAt,
	}
	if s.PositionID == "" {
		s.PositionID = positionID
	}

	var ok bool
	if s.LowerBin, ok = data.bin(keysLowerBin...); !ok {
		return nil, fmt.Errorf("position %s: lower bin: %w", positionID, errMissingField)
	}
	if s.UpperBin, ok = data.bin(keysUpperBin...); !ok {
		return nil, fmt.Errorf("position %s: upper bin: %w", positionID, errMissingField)
	}
	if s.LowerBin > s.UpperBin {
		return nil, fmt.Errorf("position %s: lower bin %d above upper bin %d", positionID, s.LowerBin, s.UpperBin)
	}

	var amounts amountReader
	var sumX, sumY uint64
	for _, item := range data.list("positionBinData", "bins", "binData") {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		b := rawObject(m)
		binID, ok := b.bin(keysBinID...)
		if !ok {
			continue
		}
		bl := dlmm.BinLiquidity{
			BinID:   binID,
			AmountX: amounts.read(b, keysAmountX...),
			AmountY: amounts.read(b, keysAmountY...),
		}
		sumX += bl.AmountX
		sumY += bl.AmountY
		s.Bins = append(s.Bins, bl)
	}

	s.TotalX = amounts.read(data, keysTotalX...)
	s.TotalY = amounts.read(data, keysTotalY...)
	if s.TotalX == 0 && s.TotalY == 0 {
		s.TotalX, s.TotalY = sumX, sumY
	}
	s.FeeX = amounts.read(data, keysFeeX...)
	s.FeeY = amounts.read(data, keysFeeY...)
	if amounts.err != nil {
		return nil, fmt.Errorf("position %s: %w", positionID, amounts.err)
	}
	return s, nil
}

func normalizeOpen(o rawObject) (*dlmm.OpenResult, error) {
	res := &dlmm.OpenResult{
		PositionID: o.str(keysPositionID...),
		DepositUSD: o.float(keysDepositUSD...),
		Signature:  o.str(keysSignature...),
	}
	if res.PositionID == "" {
		return nil, fmt.Errorf("open response: position id: %w", errMissingField)
	}
	return res, nil
}

// reservedAmounts - суммы, которые sidecar сам оставил в кошельке
func reservedAmounts(o rawObject) (buffer, rounding uint64, err error) {
	r := o.obj("reserved", "reserve")
	if r == nil {
		return 0, 0, nil
	}
	var amounts amountReader
	buffer = amounts.read(r, "feeBufferLamports", "feeBuffer", "buffer")
	rounding = amounts.read(r, "roundingLamports", "rounding", "dust")
	if amounts.err != nil {
		return 0, 0, fmt.Errorf("reserved amounts: %w", amounts.err)
	}
	return buffer, rounding, nil
}

func normalizeClose(positionID string, o rawObject) (*dlmm.CloseResult, error) {
	var amounts amountReader
	res := &dlmm.CloseResult{
		PositionID: o.str(keysPositionID...),
		AmountX:    amounts.read(o, "withdrawnX", "amountX", "xAmount"),
		AmountY:    amounts.read(o, "withdrawnY", "amountY", "yAmount"),
		FeeX:       amounts.read(o, "claimedFeeX", "feeX", "feeXAmount"),
		FeeY:       amounts.read(o, "claimedFeeY", "feeY", "feeYAmount"),
		Signature:  o.str(keysSignature...),
	}
	if amounts.err != nil {
		return nil, fmt.Errorf("close %s: %w", positionID, amounts.err)
	}
	if res.PositionID == "" {
		res.PositionID = positionID
	}
	if res.Signature == "" {
		if sigs := o.list("signatures", "txids"); len(sigs) > 0 {
			res.Signature, _ = sigs[len(sigs)-1].(string)
		}
	}
	res.Success = o.boolean(res.Signature != "", "success", "ok")
	return res, nil
}

// normalizePositionIDs принимает массив строк, массив объектов или {"positions": [...]}
func normalizePositionIDs(decoded interface{}) []string {
	var items []interface{}
	switch t := decoded.(type) {
	case []interface{}:
		items = t
	case map[string]interface{}:
		items = rawObject(t).list("positions", "userPositions", "data")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case map[string]interface{}:
			if id := rawObject(v).str(keysPositionID...); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
