package rpc

import (
	"net/http"

	"grumblechain/core/types"
	"grumblechain/native/membership"
	"grumblechain/native/posts"
)

type callerParam struct {
	Caller string `json:"caller"`
}

type badgeParam struct {
	ID uint64 `json:"id"`
}

type addressParam struct {
	Address string `json:"address"`
}

type indexParam struct {
	Index uint64 `json:"index"`
}

type memberIndexParam struct {
	Index uint32 `json:"index"`
}

type ownerIndexParams struct {
	Owner string `json:"owner"`
	Index uint64 `json:"index"`
}

type ownerOperatorParams struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

type mintParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type transferParams struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	ID     uint64 `json:"id"`
	Data   string `json:"data,omitempty"`
}

type approveBadgeParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
	ID      uint64 `json:"id"`
}

type operatorParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type approveSpendParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type renameParams struct {
	Caller   string `json:"caller"`
	Nickname string `json:"nickname"`
}

type postParams struct {
	Caller     string `json:"caller"`
	ExternalID string `json:"externalId"`
	Contents   string `json:"contents"`
	Tag        string `json:"tag"`
}

type tierParams struct {
	Caller string `json:"caller"`
	Tier   uint64 `json:"tier"`
	Cost   string `json:"cost"`
}

type amountParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type capParams struct {
	Caller string `json:"caller"`
	Cap    uint32 `json:"cap"`
}

type batchParams struct {
	Caller    string   `json:"caller"`
	Addresses []string `json:"addresses"`
}

type withdrawParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type handoverParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type postResult struct {
	ID       uint64 `json:"id"`
	Rewarded bool   `json:"rewarded"`
}

type memberResult struct {
	Address          string   `json:"address"`
	SequenceNumber   uint32   `json:"sequenceNumber"`
	RegisteredAt     uint64   `json:"registeredAt"`
	RewardCountToday uint32   `json:"rewardCountToday"`
	LastActivity     uint64   `json:"lastActivity"`
	ContentIDs       []uint64 `json:"contentIds"`
}

type entryResult struct {
	ID         uint64 `json:"id"`
	Submitter  string `json:"submitter"`
	ExternalID string `json:"externalId"`
	Contents   string `json:"contents"`
	Tag        string `json:"tag"`
	Timestamp  uint64 `json:"timestamp"`
}

func memberToResult(addr [20]byte, record *membership.Record) memberResult {
	return memberResult{
		Address:          formatAddress(addr),
		SequenceNumber:   record.SequenceNumber,
		RegisteredAt:     record.RegisteredAt,
		RewardCountToday: record.RewardCountToday,
		LastActivity:     record.LastActivity,
		ContentIDs:       record.ContentIDs,
	}
}

func entryToResult(id uint64, entry *posts.Entry) entryResult {
	return entryResult{
		ID:         id,
		Submitter:  formatAddress(entry.Submitter),
		ExternalID: entry.ExternalID,
		Contents:   entry.Contents,
		Tag:        entry.Tag,
		Timestamp:  entry.Timestamp,
	}
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		// queries
		"grumble_badgeOwner":           {fn: s.handleBadgeOwner},
		"grumble_badgeBalance":         {fn: s.handleBadgeBalance},
		"grumble_badgeSupply":          {fn: s.handleBadgeSupply},
		"grumble_badgeByIndex":         {fn: s.handleBadgeByIndex},
		"grumble_badgeOfOwnerByIndex":  {fn: s.handleBadgeOfOwnerByIndex},
		"grumble_badgeProfile":         {fn: s.handleBadgeProfile},
		"grumble_approvedBadgeSpender": {fn: s.handleApprovedBadgeSpender},
		"grumble_isBadgeOperator":      {fn: s.handleIsBadgeOperator},
		"grumble_levelCosts":           {fn: s.handleLevelCosts},
		"grumble_renameCost":           {fn: s.handleRenameCost},
		"grumble_member":               {fn: s.handleMember},
		"grumble_memberAtIndex":        {fn: s.handleMemberAtIndex},
		"grumble_totalUsers":           {fn: s.handleTotalUsers},
		"grumble_post":                 {fn: s.handlePost},
		"grumble_postCount":            {fn: s.handlePostCount},
		"grumble_tokenBalance":         {fn: s.handleTokenBalance},
		"grumble_rewardParams":         {fn: s.handleRewardParams},
		"grumble_paused":               {fn: s.handlePaused},
		"grumble_events":               {fn: s.handleEvents},

		// user operations
		"grumble_mintBadge":              {fn: s.handleMintBadge},
		"grumble_transferBadge":          {fn: s.handleTransferBadge},
		"grumble_safeTransferBadge":      {fn: s.handleSafeTransferBadge},
		"grumble_approveBadge":           {fn: s.handleApproveBadge},
		"grumble_setBadgeOperator":       {fn: s.handleSetBadgeOperator},
		"grumble_approveSpend":           {fn: s.handleApproveSpend},
		"grumble_levelUp":                {fn: s.handleLevelUp},
		"grumble_purchaseRenameVoucher":  {fn: s.handlePurchaseRenameVoucher},
		"grumble_applyRename":            {fn: s.handleApplyRename},
		"grumble_signUp":                 {fn: s.handleSignUp},
		"grumble_postInconvenience":      {fn: s.handlePostInconvenience},

		// administration
		"grumble_pause":             {admin: true, fn: s.handlePause},
		"grumble_unpause":           {admin: true, fn: s.handleUnpause},
		"grumble_transferOwnership": {admin: true, fn: s.handleTransferOwnership},
		"grumble_appendLevelCost":   {admin: true, fn: s.handleAppendLevelCost},
		"grumble_setLevelCost":      {admin: true, fn: s.handleSetLevelCost},
		"grumble_setRenameCost":     {admin: true, fn: s.handleSetRenameCost},
		"grumble_setDailyRewardCap": {admin: true, fn: s.handleSetDailyRewardCap},
		"grumble_setRewardAmount":   {admin: true, fn: s.handleSetRewardAmount},
		"grumble_batchSignUp":       {admin: true, fn: s.handleBatchSignUp},
		"grumble_withdraw":          {admin: true, fn: s.handleWithdraw},
	}
}

func (s *Server) handleBadgeOwner(w http.ResponseWriter, req *RPCRequest) {
	var params badgeParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	owner, err := s.node.BadgeOwner(params.ID)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, formatAddress(owner))
}

func (s *Server) handleBadgeBalance(w http.ResponseWriter, req *RPCRequest) {
	var params addressParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	count, err := s.node.BadgeBalance(addr)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, count)
}

func (s *Server) handleBadgeSupply(w http.ResponseWriter, req *RPCRequest) {
	supply, err := s.node.BadgeSupply()
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, supply)
}

func (s *Server) handleBadgeByIndex(w http.ResponseWriter, req *RPCRequest) {
	var params indexParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	id, err := s.node.BadgeByIndex(params.Index)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, id)
}

func (s *Server) handleBadgeOfOwnerByIndex(w http.ResponseWriter, req *RPCRequest) {
	var params ownerIndexParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	id, err := s.node.BadgeOfOwnerByIndex(owner, params.Index)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, id)
}

func (s *Server) handleApprovedBadgeSpender(w http.ResponseWriter, req *RPCRequest) {
	var params badgeParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	spender, err := s.node.ApprovedBadgeSpender(params.ID)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, formatAddress(spender))
}

func (s *Server) handleIsBadgeOperator(w http.ResponseWriter, req *RPCRequest) {
	var params ownerOperatorParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	operator, err := parseAddress(params.Operator)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	approved, err := s.node.IsBadgeOperator(owner, operator)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, approved)
}

func (s *Server) handleBadgeProfile(w http.ResponseWriter, req *RPCRequest) {
	var params badgeParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	profile, err := s.node.BadgeProfile(params.ID)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, profile)
}

func (s *Server) handleLevelCosts(w http.ResponseWriter, req *RPCRequest) {
	costs, err := s.node.LevelCosts()
	if err != nil {
		s.fail(w, req, err)
		return
	}
	out := make([]string, 0, len(costs))
	for _, cost := range costs {
		out = append(out, cost.Dec())
	}
	s.ok(w, req, out)
}

func (s *Server) handleRenameCost(w http.ResponseWriter, req *RPCRequest) {
	cost, err := s.node.RenameCost()
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, cost.Dec())
}

func (s *Server) handleMember(w http.ResponseWriter, req *RPCRequest) {
	var params addressParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	record, registered, err := s.node.Member(addr)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	if !registered {
		s.ok(w, req, nil)
		return
	}
	s.ok(w, req, memberToResult(addr, record))
}

func (s *Server) handleMemberAtIndex(w http.ResponseWriter, req *RPCRequest) {
	var params memberIndexParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	addr, err := s.node.MemberAtIndex(params.Index)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, formatAddress(addr))
}

func (s *Server) handleTotalUsers(w http.ResponseWriter, req *RPCRequest) {
	count, err := s.node.TotalUsers()
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, count)
}

func (s *Server) handlePost(w http.ResponseWriter, req *RPCRequest) {
	var params indexParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	entry, err := s.node.Post(params.Index)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, entryToResult(params.Index, entry))
}

func (s *Server) handlePostCount(w http.ResponseWriter, req *RPCRequest) {
	count, err := s.node.PostCount()
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, count)
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, req *RPCRequest) {
	var params addressParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	balance, err := s.node.TokenBalance(addr)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, balance.Dec())
}

func (s *Server) handleRewardParams(w http.ResponseWriter, req *RPCRequest) {
	s.ok(w, req, map[string]interface{}{
		"dailyCap": s.node.RewardCap(),
		"amount":   s.node.RewardAmount().Dec(),
	})
}

func (s *Server) handlePaused(w http.ResponseWriter, req *RPCRequest) {
	s.ok(w, req, s.node.Paused())
}

type eventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// handleEvents returns the node's accumulated event log in emission order.
func (s *Server) handleEvents(w http.ResponseWriter, req *RPCRequest) {
	evts := s.node.Events()
	out := make([]eventResult, 0, len(evts))
	for _, evt := range evts {
		result := eventResult{Type: evt.EventType()}
		if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
			if inner := carrier.Event(); inner != nil {
				result.Attributes = inner.Attributes
			}
		}
		out = append(out, result)
	}
	s.ok(w, req, out)
}

func (s *Server) handleMintBadge(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.MintBadge(caller, params.ID); err != nil {
		s.fail(w, req, err)
		return
	}
	s.metrics.BadgesTotal.Inc()
	s.ok(w, req, true)
}

func (s *Server) transferAddrs(params transferParams) (caller, from, to [20]byte, err error) {
	if caller, err = parseAddress(params.Caller); err != nil {
		return
	}
	if from, err = parseAddress(params.From); err != nil {
		return
	}
	to, err = parseAddress(params.To)
	return
}

func (s *Server) handleTransferBadge(w http.ResponseWriter, req *RPCRequest) {
	var params transferParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, from, to, err := s.transferAddrs(params)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.TransferBadge(caller, from, to, params.ID); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleSafeTransferBadge(w http.ResponseWriter, req *RPCRequest) {
	var params transferParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, from, to, err := s.transferAddrs(params)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.SafeTransferBadge(caller, from, to, params.ID, []byte(params.Data)); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleApproveBadge(w http.ResponseWriter, req *RPCRequest) {
	var params approveBadgeParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.ApproveBadge(caller, spender, params.ID); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleSetBadgeOperator(w http.ResponseWriter, req *RPCRequest) {
	var params operatorParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	operator, err := parseAddress(params.Operator)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.SetBadgeOperator(caller, operator, params.Approved); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleApproveSpend(w http.ResponseWriter, req *RPCRequest) {
	var params approveSpendParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.ApproveSpend(caller, spender, amount); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleLevelUp(w http.ResponseWriter, req *RPCRequest) {
	var params callerParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.LevelUp(caller); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handlePurchaseRenameVoucher(w http.ResponseWriter, req *RPCRequest) {
	var params callerParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.PurchaseRenameVoucher(caller); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleApplyRename(w http.ResponseWriter, req *RPCRequest) {
	var params renameParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.ApplyRename(caller, params.Nickname); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleSignUp(w http.ResponseWriter, req *RPCRequest) {
	var params callerParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.SignUp(caller); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handlePostInconvenience(w http.ResponseWriter, req *RPCRequest) {
	var params postParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	id, rewarded, err := s.node.PostInconvenience(caller, params.ExternalID, params.Contents, params.Tag)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.metrics.PostsTotal.Inc()
	if rewarded {
		s.metrics.RewardsTotal.Inc()
	}
	s.ok(w, req, postResult{ID: id, Rewarded: rewarded})
}

func (s *Server) handlePause(w http.ResponseWriter, req *RPCRequest) {
	var params callerParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.Pause(caller); err != nil {
		s.fail(w, req, err)
		return
	}
	s.metrics.PausedGauge.Set(1)
	s.ok(w, req, true)
}

func (s *Server) handleUnpause(w http.ResponseWriter, req *RPCRequest) {
	var params callerParam
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.Unpause(caller); err != nil {
		s.fail(w, req, err)
		return
	}
	s.metrics.PausedGauge.Set(0)
	s.ok(w, req, true)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, req *RPCRequest) {
	var params handoverParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	newOwner, err := parseAddress(params.NewOwner)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.TransferOwnership(caller, newOwner); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleTierUpdate(w http.ResponseWriter, req *RPCRequest, apply func(caller [20]byte, tier uint64, cost string) error) {
	var params tierParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := apply(caller, params.Tier, params.Cost); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleAppendLevelCost(w http.ResponseWriter, req *RPCRequest) {
	s.handleTierUpdate(w, req, func(caller [20]byte, tier uint64, cost string) error {
		amount, err := parseAmount(cost)
		if err != nil {
			return err
		}
		return s.node.AppendLevelCost(caller, tier, amount)
	})
}

func (s *Server) handleSetLevelCost(w http.ResponseWriter, req *RPCRequest) {
	s.handleTierUpdate(w, req, func(caller [20]byte, tier uint64, cost string) error {
		amount, err := parseAmount(cost)
		if err != nil {
			return err
		}
		return s.node.SetLevelCost(caller, tier, amount)
	})
}

func (s *Server) handleSetRenameCost(w http.ResponseWriter, req *RPCRequest) {
	var params amountParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.SetRenameCost(caller, amount); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleSetDailyRewardCap(w http.ResponseWriter, req *RPCRequest) {
	var params capParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.SetDailyRewardCap(caller, params.Cap); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleSetRewardAmount(w http.ResponseWriter, req *RPCRequest) {
	var params amountParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.SetRewardAmount(caller, amount); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}

func (s *Server) handleBatchSignUp(w http.ResponseWriter, req *RPCRequest) {
	var params batchParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	addrs := make([][20]byte, 0, len(params.Addresses))
	for _, raw := range params.Addresses {
		addr, err := parseAddress(raw)
		if err != nil {
			s.invalidParams(w, req, err)
			return
		}
		addrs = append(addrs, addr)
	}
	added, err := s.node.BatchSignUp(caller, addrs)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, map[string]int{"added": added})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := decodeParams(req, &params); err != nil {
		s.invalidParams(w, req, err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		s.invalidParams(w, req, err)
		return
	}
	if err := s.node.Withdraw(caller, to, amount); err != nil {
		s.fail(w, req, err)
		return
	}
	s.ok(w, req, true)
}
