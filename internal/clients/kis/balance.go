package kis

import (
	"context"
	"net/url"

	"github.com/damoa-dev/damoa/internal/models"
)

const (
	domesticBalancePath = "/uapi/domestic-stock/v1/trading/inquire-balance"
	domesticCashPath    = "/uapi/domestic-stock/v1/trading/inquire-psbl-order"
	overseasBalancePath = "/uapi/overseas-stock/v1/trading/inquire-balance"
	overseasCashPath    = "/uapi/overseas-stock/v1/trading/inquire-psamount"
)

// Holdings returns the account's positions with a positive quantity.
func (c *Client) Holdings(ctx context.Context, account models.Account) ([]models.Holding, error) {
	if account.Overseas() {
		return c.overseasHoldings(ctx, account)
	}
	return c.domesticHoldings(ctx, account)
}

// Cash returns the account's orderable cash in KRW.
func (c *Client) Cash(ctx context.Context, account models.Account) (models.CashBalance, error) {
	if account.Overseas() {
		return c.overseasCash(ctx, account)
	}
	return c.domesticCash(ctx, account)
}

type domesticBalanceResponse struct {
	apiEnvelope
	Output1 []struct {
		Pdno        string `json:"pdno"`
		PrdtName    string `json:"prdt_name"`
		HldgQty     string `json:"hldg_qty"`
		PchsAvgPric string `json:"pchs_avg_pric"`
		Prpr        string `json:"prpr"`
		EvluAmt     string `json:"evlu_amt"`
		EvluPflsAmt string `json:"evlu_pfls_amt"`
		EvluPflsRt  string `json:"evlu_pfls_rt"`
	} `json:"output1"`
}

func (c *Client) domesticHoldings(ctx context.Context, account models.Account) ([]models.Holding, error) {
	query := url.Values{}
	query.Set("CANO", account.CANO())
	query.Set("ACNT_PRDT_CD", account.ProductCode())
	query.Set("AFHR_FLPR_YN", "N")
	query.Set("OFL_YN", "")
	query.Set("INQR_DVSN", "02")
	query.Set("UNPR_DVSN", "01")
	query.Set("FUND_STTL_ICLD_YN", "N")
	query.Set("FNCG_AMT_AUTO_RDPT_YN", "N")
	query.Set("PRCS_DVSN", "01")
	query.Set("CTX_AREA_FK100", "")
	query.Set("CTX_AREA_NK100", "")

	var resp domesticBalanceResponse
	if err := c.get(ctx, account, domesticBalancePath, trDomesticBalance, query, &resp); err != nil {
		return nil, err
	}
	if resp.RtCd != "0" {
		return nil, resp.failure(account.Name, domesticBalancePath)
	}

	holdings := make([]models.Holding, 0, len(resp.Output1))
	for _, row := range resp.Output1 {
		qty, err := parseQuantity(row.HldgQty)
		if err != nil {
			c.dropRow(account, row.Pdno, "hldg_qty", err)
			continue
		}
		if qty <= 0 {
			continue
		}

		h := models.Holding{
			Code:        row.Pdno,
			Name:        row.PrdtName,
			Quantity:    qty,
			AccountName: account.Name,
			Currency:    "KRW",
		}
		if !c.parseRow(account, row.Pdno, []amountField{
			{&h.AvgCost, "pchs_avg_pric", row.PchsAvgPric},
			{&h.Price, "prpr", row.Prpr},
			{&h.MarketValue, "evlu_amt", row.EvluAmt},
			{&h.ProfitLoss, "evlu_pfls_amt", row.EvluPflsAmt},
			{&h.ReturnPct, "evlu_pfls_rt", row.EvluPflsRt},
		}) {
			continue
		}
		holdings = append(holdings, h)
	}

	c.logger.Info().Str("account", account.Name).Int("holdings", len(holdings)).Msg("collected domestic holdings")
	return holdings, nil
}

type overseasBalanceResponse struct {
	apiEnvelope
	Output1 []struct {
		OvrsPdno        string `json:"ovrs_pdno"`
		OvrsItemName    string `json:"ovrs_item_name"`
		OvrsCblcQty     string `json:"ovrs_cblc_qty"`
		PchsAvgPric     string `json:"pchs_avg_pric"`
		NowPric2        string `json:"now_pric2"`
		OvrsStckEvluAmt string `json:"ovrs_stck_evlu_amt"`
		FrcrEvluPflsAmt string `json:"frcr_evlu_pfls_amt"`
		EvluPflsRt      string `json:"evlu_pfls_rt"`
	} `json:"output1"`
}

// overseasHoldings collects the USD account. Market value and profit both
// convert to KRW for consolidation; quantity, average cost and per-share
// price stay in the trade currency.
func (c *Client) overseasHoldings(ctx context.Context, account models.Account) ([]models.Holding, error) {
	query := url.Values{}
	query.Set("CANO", account.CANO())
	query.Set("ACNT_PRDT_CD", account.ProductCode())
	query.Set("OVRS_EXCG_CD", "NASD")
	query.Set("TR_CRCY_CD", "USD")
	query.Set("CTX_AREA_FK200", "")
	query.Set("CTX_AREA_NK200", "")

	var resp overseasBalanceResponse
	if err := c.get(ctx, account, overseasBalancePath, trOverseasBalance, query, &resp); err != nil {
		return nil, err
	}
	if resp.RtCd != "0" {
		return nil, resp.failure(account.Name, overseasBalancePath)
	}

	quote := c.rates.Resolve(ctx)

	holdings := make([]models.Holding, 0, len(resp.Output1))
	for _, row := range resp.Output1 {
		qty, err := parseQuantity(row.OvrsCblcQty)
		if err != nil {
			c.dropRow(account, row.OvrsPdno, "ovrs_cblc_qty", err)
			continue
		}
		if qty <= 0 {
			continue
		}

		h := models.Holding{
			Code:        row.OvrsPdno,
			Name:        row.OvrsItemName,
			Quantity:    qty,
			AccountName: account.Name,
			Currency:    "USD",
		}
		if !c.parseRow(account, row.OvrsPdno, []amountField{
			{&h.AvgCost, "pchs_avg_pric", row.PchsAvgPric},
			{&h.Price, "now_pric2", row.NowPric2},
			{&h.MarketValue, "ovrs_stck_evlu_amt", row.OvrsStckEvluAmt},
			{&h.ProfitLoss, "frcr_evlu_pfls_amt", row.FrcrEvluPflsAmt},
			{&h.ReturnPct, "evlu_pfls_rt", row.EvluPflsRt},
		}) {
			continue
		}
		h.MarketValue *= quote.Rate
		h.ProfitLoss *= quote.Rate
		holdings = append(holdings, h)
	}

	c.logger.Info().
		Str("account", account.Name).
		Int("holdings", len(holdings)).
		Float64("usd_krw", quote.Rate).
		Str("rate_source", quote.Source).
		Msg("collected overseas holdings")
	return holdings, nil
}

type domesticCashResponse struct {
	apiEnvelope
	Output struct {
		OrdPsblCash string `json:"ord_psbl_cash"`
	} `json:"output"`
}

// domesticCash asks the orderable-amount endpoint how much cash the account
// could put into a sample order. The probe instrument and price are
// placeholders the endpoint requires; any liquid code works.
func (c *Client) domesticCash(ctx context.Context, account models.Account) (models.CashBalance, error) {
	query := url.Values{}
	query.Set("CANO", account.CANO())
	query.Set("ACNT_PRDT_CD", account.ProductCode())
	query.Set("PDNO", "005930")
	query.Set("ORD_UNPR", "65500")
	query.Set("ORD_DVSN", "01")
	query.Set("CMA_EVLU_AMT_ICLD_YN", "Y")
	query.Set("OVRS_ICLD_YN", "Y")

	var resp domesticCashResponse
	if err := c.get(ctx, account, domesticCashPath, trDomesticCash, query, &resp); err != nil {
		return models.CashBalance{}, err
	}
	if resp.RtCd != "0" {
		return models.CashBalance{}, resp.failure(account.Name, domesticCashPath)
	}

	amount, err := parseAmount(resp.Output.OrdPsblCash)
	if err != nil {
		return models.CashBalance{}, &models.ParseError{Account: account.Name, Field: "ord_psbl_cash", Err: err}
	}

	c.logger.Info().Str("account", account.Name).Float64("cash", amount).Msg("collected cash balance")
	return models.CashBalance{AccountName: account.Name, Amount: amount}, nil
}

type overseasCashResponse struct {
	apiEnvelope
	Output struct {
		OrdPsblFrcrAmt string `json:"ord_psbl_frcr_amt"`
	} `json:"output"`
}

func (c *Client) overseasCash(ctx context.Context, account models.Account) (models.CashBalance, error) {
	query := url.Values{}
	query.Set("CANO", account.CANO())
	query.Set("ACNT_PRDT_CD", account.ProductCode())
	query.Set("OVRS_EXCG_CD", "NASD")
	query.Set("OVRS_ORD_UNPR", "100.00")
	query.Set("ITEM_CD", "AAPL")

	var resp overseasCashResponse
	if err := c.get(ctx, account, overseasCashPath, trOverseasCash, query, &resp); err != nil {
		return models.CashBalance{}, err
	}
	if resp.RtCd != "0" {
		return models.CashBalance{}, resp.failure(account.Name, overseasCashPath)
	}

	usd, err := parseAmount(resp.Output.OrdPsblFrcrAmt)
	if err != nil {
		return models.CashBalance{}, &models.ParseError{Account: account.Name, Field: "ord_psbl_frcr_amt", Err: err}
	}

	quote := c.rates.Resolve(ctx)
	amount := usd * quote.Rate

	c.logger.Info().
		Str("account", account.Name).
		Float64("cash_usd", usd).
		Float64("cash", amount).
		Msg("collected cash balance")
	return models.CashBalance{AccountName: account.Name, Amount: amount}, nil
}

// amountField pairs a destination with the raw provider string for one column.
type amountField struct {
	dst  *float64
	name string
	raw  string
}

// parseRow fills every field or reports the row as dropped. A single bad
// column discards the whole row so partially parsed holdings never surface.
func (c *Client) parseRow(account models.Account, code string, fields []amountField) bool {
	for _, f := range fields {
		v, err := parseAmount(f.raw)
		if err != nil {
			c.dropRow(account, code, f.name, err)
			return false
		}
		*f.dst = v
	}
	return true
}

func (c *Client) dropRow(account models.Account, code, field string, err error) {
	perr := &models.ParseError{Account: account.Name, Code: code, Field: field, Err: err}
	c.logger.Warn().Err(perr).Msg("dropping unparseable row")
}
