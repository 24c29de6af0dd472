package pair

import (
	"fmt"
	"math/big"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/decmath"
	"github.com/pooldex/swapd/ledger"
	"github.com/pooldex/swapd/pricing"
)

// Init records the pair's identity and emits the liquidity-token
// instantiation whose init hook will call PostInitialize, plus the
// factory's register callback when one was requested.
func Init(state StateStore, contractAddr string, factory ledger.ContractRef, msg InitMsg) (*ledger.Response, error) {
	info := &Info{
		ContractAddr:  contractAddr,
		TokenCodeHash: msg.TokenCodeHash,
		AssetInfos:    msg.AssetInfos,
		Factory:       factory,
	}
	if err := state.Save(info, 0); err != nil {
		return nil, err
	}

	resp := &ledger.Response{
		Instructions: []ledger.Instruction{
			ledger.Instantiate{
				CodeID:   msg.TokenCodeID,
				CodeHash: msg.TokenCodeHash,
				Label:    fmt.Sprintf("%s-%s-lp", msg.AssetInfos[0], msg.AssetInfos[1]),
				Msg: TokenInitMsg{
					Name:     fmt.Sprintf("liquidity provider token for %s-%s", msg.AssetInfos[0], msg.AssetInfos[1]),
					Symbol:   "SWAP-LP",
					Decimals: 6,
					Minter:   contractAddr,
					InitHook: &InitHook{
						Contract: ledger.ContractRef{Address: contractAddr},
						Msg:      PostInitializeMsg{},
					},
				},
			},
		},
		Log: []ledger.Attribute{ledger.Attr("status", "success")},
	}
	if msg.InitHook != nil {
		resp.Instructions = append(resp.Instructions, ledger.Execute{
			Contract: msg.InitHook.Contract,
			Msg:      msg.InitHook.Msg,
		})
	}
	return resp, nil
}

// PostInitialize is the pair's only state transition: the freshly
// deployed liquidity token announces itself exactly once.
func (p *Pair) PostInitialize(sender string) (*ledger.Response, error) {
	info, version, err := p.state.Load()
	if err != nil {
		return nil, err
	}
	if !info.LiquidityToken.IsEmpty() {
		return nil, fmt.Errorf("%w: liquidity token is already registered", ErrUnauthorized)
	}
	info.LiquidityToken = ledger.ContractRef{Address: sender, CodeHash: info.TokenCodeHash}
	if err := p.state.Save(info, version); err != nil {
		return nil, err
	}
	p.log.Printf("pair %s: liquidity token %s registered", info.ContractAddr, sender)
	return &ledger.Response{
		Log: []ledger.Attribute{ledger.Attr("liquidity_token_addr", sender)},
	}, nil
}

// ProvideLiquidity deposits both assets and mints pool shares. Native
// deposits already sit in the just-read balance and are subtracted out;
// token deposits are pulled with a TransferFrom instruction.
func (p *Pair) ProvideLiquidity(sender string, funds []asset.Coin, assets [2]asset.Asset, slippageTolerance *decmath.Decimal) (*ledger.Response, error) {
	for _, a := range assets {
		if err := a.AssertSentBalance(funds); err != nil {
			return nil, err
		}
	}

	info, _, err := p.state.Load()
	if err != nil {
		return nil, err
	}
	pools, err := p.queryPools(info)
	if err != nil {
		return nil, err
	}

	var deposits [2]*big.Int
	for i := range pools {
		for _, a := range assets {
			if a.Info.Equal(pools[i].Info) {
				deposits[i] = a.Amount
			}
		}
		if deposits[i] == nil {
			return nil, fmt.Errorf("%w: deposit does not match pool asset %s",
				asset.ErrInvalidAsset, pools[i].Info.String())
		}
	}

	var instructions []ledger.Instruction
	for i := range pools {
		if token, ok := pools[i].Info.(asset.Token); ok {
			instructions = append(instructions, ledger.TransferFrom{
				Token:     token,
				Owner:     sender,
				Recipient: info.ContractAddr,
				Amount:    deposits[i],
			})
		} else {
			// the native deposit is already credited; price against the
			// pre-deposit reserve
			pools[i].Amount, err = decmath.CheckedSub(pools[i].Amount, deposits[i])
			if err != nil {
				return nil, err
			}
		}
	}

	if err := pricing.AssertSlippageTolerance(slippageTolerance, deposits, [2]*big.Int{pools[0].Amount, pools[1].Amount}); err != nil {
		return nil, err
	}

	totalShare, err := p.totalShare(info)
	if err != nil {
		return nil, err
	}
	var share *big.Int
	if totalShare.Sign() == 0 {
		// initial share: geometric mean of the two deposits
		share = decmath.Sqrt(new(big.Int).Mul(deposits[0], deposits[1]))
	} else {
		// min of the two ratios keeps a lopsided deposit from minting
		// disproportionate shares
		share0, err := decmath.MulRatio(deposits[0], totalShare, pools[0].Amount)
		if err != nil {
			return nil, err
		}
		share1, err := decmath.MulRatio(deposits[1], totalShare, pools[1].Amount)
		if err != nil {
			return nil, err
		}
		share = share0
		if share1.Cmp(share0) < 0 {
			share = share1
		}
	}

	instructions = append(instructions, ledger.Mint{
		Token:     info.LiquidityToken,
		Recipient: sender,
		Amount:    share,
	})

	p.log.Printf("pair %s: provide liquidity %s, %s -> %s shares",
		info.ContractAddr, assets[0].String(), assets[1].String(), share.String())
	return &ledger.Response{
		Instructions: instructions,
		Log: []ledger.Attribute{
			ledger.Attr("action", "provide_liquidity"),
			ledger.Attr("assets", fmt.Sprintf("%s, %s", assets[0].String(), assets[1].String())),
			ledger.Attr("share", share.String()),
		},
	}, nil
}

// Swap is the direct entry point; it only accepts native offers whose
// funds accompany the call. Token offers must arrive through Receive.
func (p *Pair) Swap(sender string, funds []asset.Coin, offer asset.Asset, opts SwapOptions) (*ledger.Response, error) {
	if !offer.Info.IsNative() {
		return nil, fmt.Errorf("%w: token offers must come through the token contract", ErrUnauthorized)
	}
	if err := offer.AssertSentBalance(funds); err != nil {
		return nil, err
	}
	return p.swap(sender, offer, opts)
}

// Receive handles an incoming token-transfer notification carrying an
// embedded hook. The notifying contract must be one of the pool tokens
// for a swap, or the liquidity token for a withdrawal.
func (p *Pair) Receive(tokenContract, from string, amount *big.Int, msg *HookMsg) (*ledger.Response, error) {
	if msg == nil || (msg.Swap == nil && msg.WithdrawLiquidity == nil) {
		return nil, ErrNoHookData
	}

	info, _, err := p.state.Load()
	if err != nil {
		return nil, err
	}

	if msg.Swap != nil {
		var offerInfo asset.Info
		for _, ai := range info.AssetInfos {
			if token, ok := ai.(asset.Token); ok && token.ContractAddr == tokenContract {
				offerInfo = ai
			}
		}
		if offerInfo == nil {
			return nil, fmt.Errorf("%w: %s is not a pool asset contract", ErrUnauthorized, tokenContract)
		}
		opts, err := msg.Swap.Options()
		if err != nil {
			return nil, err
		}
		return p.swap(from, asset.Asset{Info: offerInfo, Amount: amount}, opts)
	}

	if tokenContract != info.LiquidityToken.Address {
		return nil, fmt.Errorf("%w: %s is not the liquidity token", ErrUnauthorized, tokenContract)
	}
	return p.withdrawLiquidity(from, amount)
}

func (p *Pair) swap(sender string, offer asset.Asset, opts SwapOptions) (*ledger.Response, error) {
	info, _, err := p.state.Load()
	if err != nil {
		return nil, err
	}
	pools, err := p.queryPools(info)
	if err != nil {
		return nil, err
	}

	// the offered funds are already credited to the pair; price against
	// the pre-trade reserve
	var offerPool, askPool asset.Asset
	switch {
	case offer.Info.Equal(pools[0].Info):
		offerPool, askPool = pools[0], pools[1]
	case offer.Info.Equal(pools[1].Info):
		offerPool, askPool = pools[1], pools[0]
	default:
		return nil, fmt.Errorf("%w: offered asset %s matches neither pool",
			asset.ErrInvalidAsset, offer.Info.String())
	}
	preTradePool, err := decmath.CheckedSub(offerPool.Amount, offer.Amount)
	if err != nil {
		return nil, err
	}

	returnAmount, spreadAmount, commissionAmount, err := pricing.ComputeSwap(preTradePool, askPool.Amount, offer.Amount)
	if err != nil {
		return nil, err
	}
	if err := pricing.AssertMaxSpread(opts.BeliefPrice, opts.MaxSpread, opts.ExpectedReturn,
		offer.Amount, returnAmount, commissionAmount, spreadAmount); err != nil {
		return nil, err
	}

	returnAsset := asset.Asset{Info: askPool.Info, Amount: returnAmount}
	taxAmount, err := returnAsset.ComputeTax(p.ledger)
	if err != nil {
		return nil, err
	}

	receiver := opts.To
	if receiver == "" {
		receiver = sender
	}

	p.log.Printf("pair %s: swap %s -> %s for %s (spread %s, commission %s)",
		info.ContractAddr, offer.String(), returnAsset.String(), receiver,
		spreadAmount.String(), commissionAmount.String())
	return &ledger.Response{
		Instructions: []ledger.Instruction{
			ledger.Transfer{Asset: returnAsset, From: info.ContractAddr, To: receiver},
		},
		Log: []ledger.Attribute{
			ledger.Attr("action", "swap"),
			ledger.Attr("receiver", receiver),
			ledger.Attr("offer_asset", offer.Info.String()),
			ledger.Attr("ask_asset", askPool.Info.String()),
			ledger.Attr("offer_amount", offer.Amount.String()),
			ledger.Attr("return_amount", returnAmount.String()),
			ledger.Attr("tax_amount", taxAmount.String()),
			ledger.Attr("spread_amount", spreadAmount.String()),
			ledger.Attr("commission_amount", commissionAmount.String()),
		},
	}, nil
}

func (p *Pair) withdrawLiquidity(sender string, amount *big.Int) (*ledger.Response, error) {
	info, _, err := p.state.Load()
	if err != nil {
		return nil, err
	}
	pools, err := p.queryPools(info)
	if err != nil {
		return nil, err
	}
	totalShare, err := p.totalShare(info)
	if err != nil {
		return nil, err
	}

	// fixed-point share ratio, not naive integer division
	shareRatio, err := decmath.FromRatio(amount, totalShare)
	if err != nil {
		return nil, err
	}
	var refunds [2]asset.Asset
	for i := range pools {
		refunds[i] = asset.Asset{
			Info:   pools[i].Info,
			Amount: shareRatio.MulInt(pools[i].Amount),
		}
	}

	p.log.Printf("pair %s: withdraw %s shares -> %s, %s",
		info.ContractAddr, amount.String(), refunds[0].String(), refunds[1].String())
	return &ledger.Response{
		Instructions: []ledger.Instruction{
			ledger.Transfer{Asset: refunds[0], From: info.ContractAddr, To: sender},
			ledger.Transfer{Asset: refunds[1], From: info.ContractAddr, To: sender},
			ledger.Burn{Token: info.LiquidityToken, Holder: info.ContractAddr, Amount: amount},
		},
		Log: []ledger.Attribute{
			ledger.Attr("action", "withdraw_liquidity"),
			ledger.Attr("withdrawn_share", amount.String()),
			ledger.Attr("refund_assets", fmt.Sprintf("%s, %s", refunds[0].String(), refunds[1].String())),
		},
	}, nil
}
