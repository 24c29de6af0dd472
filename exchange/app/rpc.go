package app

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/config"
	"github.com/pooldex/swapd/decmath"
	"github.com/pooldex/swapd/ledger"
	"github.com/pooldex/swapd/pair"
	"github.com/pooldex/swapd/store"
)

func (e *Exchange) StartRPC() {
	router := gin.New()
	g := router.Group("/api")
	g.GET("/pair", e.getPair)
	g.GET("/pairs", e.getPairs)
	g.GET("/pool", e.getPool)
	g.GET("/simulation", e.getSimulation)
	g.GET("/reverse_simulation", e.getReverseSimulation)
	g.GET("/config", e.getConfig)
	g.GET("/pair_settings", e.getPairSettings)
	g.GET("/swaps", e.getSwaps)
	g.GET("/liquidity", e.getLiquidity)
	g.POST("/swap", e.postSwap)
	g.POST("/provide_liquidity", e.postProvideLiquidity)
	g.POST("/withdraw_liquidity", e.postWithdrawLiquidity)
	g.POST("/create_pair", e.postCreatePair)
	e.httpServer = &http.Server{
		Addr:    e.rpcPort,
		Handler: router,
	}
	e.log.Printf("start rpc server......")
	go func() {
		if err := e.httpServer.ListenAndServe(); err != nil {
			e.log.Printf("ListenAndServe: %s", err.Error())
		}
	}()
}

type pairView struct {
	Assets         [2]string `json:"assets"`
	ContractAddr   string    `json:"contract_addr"`
	LiquidityToken string    `json:"liquidity_token"`
}

func buildPairView(info *pair.Info) *pairView {
	return &pairView{
		Assets:         [2]string{info.AssetInfos[0].String(), info.AssetInfos[1].String()},
		ContractAddr:   info.ContractAddr,
		LiquidityToken: info.LiquidityToken.Address,
	}
}

type assetView struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type poolView struct {
	Assets     [2]assetView `json:"assets"`
	TotalShare string       `json:"total_share"`
}

func formatAmount(a *big.Int) string {
	return decimal.NewFromBigInt(a, 0).String()
}

func (e *Exchange) getPair(c *gin.Context) {
	asset0, ok0 := c.GetQuery("asset0")
	asset1, ok1 := c.GetQuery("asset1")
	if !ok0 || !ok1 {
		c.JSON(500, "parameter is invalid")
		return
	}
	info, err := e.factory.Pair([2]asset.Info{
		e.assetInfoFromKey(asset0),
		e.assetInfoFromKey(asset1),
	})
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, buildPairView(info))
}

func (e *Exchange) getPairs(c *gin.Context) {
	var startAfter *[2]asset.Info
	if a0, ok := c.GetQuery("start_after0"); ok {
		a1, ok := c.GetQuery("start_after1")
		if !ok {
			c.JSON(500, "parameter is invalid")
			return
		}
		startAfter = &[2]asset.Info{
			e.assetInfoFromKey(a0),
			e.assetInfoFromKey(a1),
		}
	}
	var limit *int
	if limitStr, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(500, err.Error())
			return
		}
		limit = &n
	}
	infos, err := e.factory.Pairs(startAfter, limit)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	views := make([]*pairView, 0, len(infos))
	for _, info := range infos {
		views = append(views, buildPairView(info))
	}
	c.JSON(200, views)
}

func (e *Exchange) getPool(c *gin.Context) {
	p, ok := e.pairFromQuery(c)
	if !ok {
		return
	}
	pool, err := p.Pool()
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, &poolView{
		Assets: [2]assetView{
			{Asset: pool.Assets[0].Info.String(), Amount: formatAmount(pool.Assets[0].Amount)},
			{Asset: pool.Assets[1].Info.String(), Amount: formatAmount(pool.Assets[1].Amount)},
		},
		TotalShare: formatAmount(pool.TotalShare),
	})
}

func (e *Exchange) getSimulation(c *gin.Context) {
	p, ok := e.pairFromQuery(c)
	if !ok {
		return
	}
	offer, ok := e.assetFromQuery(c, "offer_asset")
	if !ok {
		return
	}
	sim, err := p.Simulation(offer)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, gin.H{
		"return_amount":     formatAmount(sim.ReturnAmount),
		"spread_amount":     formatAmount(sim.SpreadAmount),
		"commission_amount": formatAmount(sim.CommissionAmount),
	})
}

func (e *Exchange) getReverseSimulation(c *gin.Context) {
	p, ok := e.pairFromQuery(c)
	if !ok {
		return
	}
	ask, ok := e.assetFromQuery(c, "ask_asset")
	if !ok {
		return
	}
	sim, err := p.ReverseSimulation(ask)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, gin.H{
		"offer_amount":      formatAmount(sim.OfferAmount),
		"spread_amount":     formatAmount(sim.SpreadAmount),
		"commission_amount": formatAmount(sim.CommissionAmount),
	})
}

func (e *Exchange) getConfig(c *gin.Context) {
	c.JSON(200, e.factory.Config())
}

func (e *Exchange) getPairSettings(c *gin.Context) {
	c.JSON(200, e.factory.PairSettings())
}

func (e *Exchange) getSwaps(c *gin.Context) {
	if e.store == nil {
		c.JSON(500, "store is not configured")
		return
	}
	records, err := e.store.GetSwapRecords(c.Query("pair"), queryLimit(c))
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, records)
}

func (e *Exchange) getLiquidity(c *gin.Context) {
	if e.store == nil {
		c.JSON(500, "store is not configured")
		return
	}
	records, err := e.store.GetLiquidityRecords(c.Query("pair"), queryLimit(c))
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, records)
}

func queryLimit(c *gin.Context) int {
	if limitStr, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= config.MaxListLimit {
			return n
		}
	}
	return config.DefaultListLimit
}

type swapRequest struct {
	Pair           string  `json:"pair"`
	Sender         string  `json:"sender"`
	OfferAsset     string  `json:"offer_asset"`
	Amount         string  `json:"amount"`
	ExpectedReturn *string `json:"expected_return,omitempty"`
	BeliefPrice    *string `json:"belief_price,omitempty"`
	MaxSpread      *string `json:"max_spread,omitempty"`
	To             string  `json:"to,omitempty"`
}

func (e *Exchange) postSwap(c *gin.Context) {
	var req swapRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(500, err.Error())
		return
	}
	p, ok := e.pairByAddr(req.Pair)
	if !ok {
		c.JSON(500, fmt.Sprintf("unknown pair %s", req.Pair))
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(500, fmt.Sprintf("amount (%s) is invalid", req.Amount))
		return
	}
	hook := pair.SwapHook{
		ExpectedReturn: req.ExpectedReturn,
		BeliefPrice:    req.BeliefPrice,
		MaxSpread:      req.MaxSpread,
		To:             req.To,
	}
	offer := asset.Asset{Info: e.assetInfoFromKey(req.OfferAsset), Amount: amount}

	pre := []ledger.Instruction{
		ledger.Transfer{Asset: offer, From: req.Sender, To: req.Pair},
	}
	resp, err := e.submit(pre, req.Pair, func() (*ledger.Response, error) {
		if offer.Info.IsNative() {
			opts, err := hook.Options()
			if err != nil {
				return nil, err
			}
			funds := []asset.Coin{{Denom: offer.Info.Key(), Amount: amount}}
			return p.Swap(req.Sender, funds, offer, opts)
		}
		return p.Receive(offer.Info.Key(), req.Sender, amount, &pair.HookMsg{Swap: &hook})
	})
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	e.recordSwap(req.Pair, req.Sender, resp)
	c.JSON(200, attrMap(resp))
}

type liquidityAsset struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type provideRequest struct {
	Pair              string            `json:"pair"`
	Sender            string            `json:"sender"`
	Assets            [2]liquidityAsset `json:"assets"`
	SlippageTolerance *string           `json:"slippage_tolerance,omitempty"`
}

func (e *Exchange) postProvideLiquidity(c *gin.Context) {
	var req provideRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(500, err.Error())
		return
	}
	p, ok := e.pairByAddr(req.Pair)
	if !ok {
		c.JSON(500, fmt.Sprintf("unknown pair %s", req.Pair))
		return
	}

	var assets [2]asset.Asset
	var funds []asset.Coin
	var pre []ledger.Instruction
	for i, la := range req.Assets {
		amount, ok := new(big.Int).SetString(la.Amount, 10)
		if !ok || amount.Sign() <= 0 {
			c.JSON(500, fmt.Sprintf("amount (%s) is invalid", la.Amount))
			return
		}
		assets[i] = asset.Asset{Info: e.assetInfoFromKey(la.Asset), Amount: amount}
		if assets[i].Info.IsNative() {
			funds = append(funds, asset.Coin{Denom: la.Asset, Amount: amount})
			pre = append(pre, ledger.Transfer{Asset: assets[i], From: req.Sender, To: req.Pair})
		}
	}
	tolerance, err := parseOptionalDecimal(req.SlippageTolerance)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}

	resp, err := e.submit(pre, req.Pair, func() (*ledger.Response, error) {
		return p.ProvideLiquidity(req.Sender, funds, assets, tolerance)
	})
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	e.recordLiquidity(req.Pair, req.Sender, "provide",
		req.Assets[0].Amount, req.Assets[1].Amount, attrValue(resp, "share"))
	c.JSON(200, attrMap(resp))
}

type withdrawRequest struct {
	Pair   string `json:"pair"`
	Sender string `json:"sender"`
	Amount string `json:"amount"`
}

func (e *Exchange) postWithdrawLiquidity(c *gin.Context) {
	var req withdrawRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(500, err.Error())
		return
	}
	p, ok := e.pairByAddr(req.Pair)
	if !ok {
		c.JSON(500, fmt.Sprintf("unknown pair %s", req.Pair))
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(500, fmt.Sprintf("amount (%s) is invalid", req.Amount))
		return
	}
	info, err := p.Info()
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	lpAsset := asset.Asset{
		Info:   asset.Token{ContractAddr: info.LiquidityToken.Address, CodeHash: info.LiquidityToken.CodeHash},
		Amount: amount,
	}

	pre := []ledger.Instruction{
		ledger.Transfer{Asset: lpAsset, From: req.Sender, To: req.Pair},
	}
	resp, err := e.submit(pre, req.Pair, func() (*ledger.Response, error) {
		return p.Receive(info.LiquidityToken.Address, req.Sender, amount, &pair.HookMsg{
			WithdrawLiquidity: &pair.WithdrawHook{},
		})
	})
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	refunds := strings.SplitN(attrValue(resp, "refund_assets"), ", ", 2)
	refund0, refund1 := "", ""
	if len(refunds) == 2 {
		refund0, refund1 = refunds[0], refunds[1]
	}
	e.recordLiquidity(req.Pair, req.Sender, "withdraw", refund0, refund1, req.Amount)
	c.JSON(200, attrMap(resp))
}

type createPairRequest struct {
	Sender string `json:"sender"`
	Asset0 string `json:"asset0"`
	Asset1 string `json:"asset1"`
}

func (e *Exchange) postCreatePair(c *gin.Context) {
	var req createPairRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(500, err.Error())
		return
	}
	infos := [2]asset.Info{
		e.assetInfoFromKey(req.Asset0),
		e.assetInfoFromKey(req.Asset1),
	}
	resp, err := e.factory.CreatePair(req.Sender, infos)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	if err := e.executor.Run(factoryAddr, resp); err != nil {
		c.JSON(500, err.Error())
		return
	}
	info, err := e.factory.Pair(infos)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	c.JSON(200, buildPairView(info))
}

func (e *Exchange) pairFromQuery(c *gin.Context) (*pair.Pair, bool) {
	addr, ok := c.GetQuery("pair")
	if !ok {
		c.JSON(500, "parameter is invalid")
		return nil, false
	}
	p, ok := e.pairByAddr(addr)
	if !ok {
		c.JSON(500, fmt.Sprintf("unknown pair %s", addr))
		return nil, false
	}
	return p, true
}

func (e *Exchange) assetFromQuery(c *gin.Context, assetParam string) (asset.Asset, bool) {
	key, ok := c.GetQuery(assetParam)
	if !ok {
		c.JSON(500, "parameter is invalid")
		return asset.Asset{}, false
	}
	amountStr, ok := c.GetQuery("amount")
	if !ok {
		c.JSON(500, "parameter is invalid")
		return asset.Asset{}, false
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() < 0 {
		c.JSON(500, fmt.Sprintf("amount (%s) is invalid", amountStr))
		return asset.Asset{}, false
	}
	return asset.Asset{Info: e.assetInfoFromKey(key), Amount: amount}, true
}

func parseOptionalDecimal(s *string) (*decmath.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decmath.FromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func attrValue(resp *ledger.Response, key string) string {
	for _, attr := range resp.Log {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

func attrMap(resp *ledger.Response) gin.H {
	m := gin.H{}
	for _, attr := range resp.Log {
		m[attr.Key] = attr.Value
	}
	return m
}

func (e *Exchange) recordSwap(pairAddr, sender string, resp *ledger.Response) {
	returnAmount := attrValue(resp, "return_amount")
	receiver := attrValue(resp, "receiver")
	if receiver == "" {
		receiver = sender
	}
	if e.store != nil {
		e.store.StoreSwapRecord(&store.SwapRecord{
			Time:             uint64(time.Now().Unix()),
			Pair:             pairAddr,
			Sender:           sender,
			Receiver:         receiver,
			OfferAsset:       attrValue(resp, "offer_asset"),
			AskAsset:         attrValue(resp, "ask_asset"),
			OfferAmount:      attrValue(resp, "offer_amount"),
			ReturnAmount:     returnAmount,
			SpreadAmount:     attrValue(resp, "spread_amount"),
			CommissionAmount: attrValue(resp, "commission_amount"),
			TaxAmount:        attrValue(resp, "tax_amount"),
		})
	}
	if e.webhook != nil && e.notifyMin != nil {
		if v, ok := new(big.Int).SetString(returnAmount, 10); ok && v.Cmp(e.notifyMin) >= 0 {
			go e.webhook.NotifyText("swap on %s;\nreturn: %s %s;\ntime: %s;",
				pairAddr, returnAmount, attrValue(resp, "ask_asset"),
				time.Now().Format("2006-01-02 15:04:05"))
		}
	}
}

func (e *Exchange) recordLiquidity(pairAddr, sender, action, amount0, amount1, share string) {
	if e.store == nil {
		return
	}
	e.store.StoreLiquidityRecord(&store.LiquidityRecord{
		Time:    uint64(time.Now().Unix()),
		Pair:    pairAddr,
		Sender:  sender,
		Action:  action,
		Amount0: amount0,
		Amount1: amount1,
		Share:   share,
	})
}
