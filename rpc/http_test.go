package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"

	"grumblechain/core"
	"grumblechain/core/state"
	"grumblechain/native/token"
	"grumblechain/storage"
)

const (
	testToken   = "test-admin-token"
	ownerHex    = "0x00000000000000000000000000000000000000aa"
	treasuryHex = "0x00000000000000000000000000000000000000ff"
	memberHex   = "0x0000000000000000000000000000000000000001"
	strangerHex = "0x0000000000000000000000000000000000000002"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := storage.NewMemDB()
	mgr := state.NewManager(db)
	ledger := token.NewLedger(mgr, 0)

	owner, _ := parseAddress(ownerHex)
	treasury, _ := parseAddress(treasuryHex)
	node, err := core.NewNode(mgr, ledger, core.Params{
		Owner:          owner,
		Treasury:       treasury,
		RewardAmount:   uint256.NewInt(5),
		DailyRewardCap: 1,
		RenameCost:     uint256.NewInt(50),
		LevelCosts:     []*uint256.Int{uint256.NewInt(100)},
	})
	if err != nil {
		t.Fatalf("node boot failed: %v", err)
	}
	if err := ledger.Mint(treasury, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("treasury funding failed: %v", err)
	}
	if err := mgr.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	ts := httptest.NewServer(NewServer(node, testToken).Router())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, token, method string, params interface{}) (*RPCResponse, int) {
	t.Helper()
	body := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("request build failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	out := &RPCResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return out, resp.StatusCode
}

func mustSucceed(t *testing.T, resp *RPCResponse) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected RPC error: %+v", resp.Error)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestSignUpAndPostFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, ts, "", "grumble_signUp", map[string]string{"caller": memberHex})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_postInconvenience", map[string]string{
		"caller":     memberHex,
		"externalId": "ext-1",
		"contents":   "the elevator is broken again",
		"tag":        "facilities",
	})
	mustSucceed(t, resp)
	var posted postResult
	raw, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &posted); err != nil {
		t.Fatalf("result decode failed: %v", err)
	}
	if posted.ID != 0 || !posted.Rewarded {
		t.Fatalf("unexpected post result: %+v", posted)
	}

	resp, _ = call(t, ts, "", "grumble_member", map[string]string{"address": memberHex})
	mustSucceed(t, resp)
	var member memberResult
	raw, _ = json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &member); err != nil {
		t.Fatalf("member decode failed: %v", err)
	}
	if member.RewardCountToday != 1 || len(member.ContentIDs) != 1 {
		t.Fatalf("unexpected member: %+v", member)
	}

	resp, _ = call(t, ts, "", "grumble_tokenBalance", map[string]string{"address": memberHex})
	mustSucceed(t, resp)
	if resp.Result != "5" {
		t.Fatalf("reward not visible: %v", resp.Result)
	}

	resp, _ = call(t, ts, "", "grumble_events", nil)
	mustSucceed(t, resp)
	var evts []eventResult
	raw, _ = json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &evts); err != nil {
		t.Fatalf("events decode failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, evt := range evts {
		seen[evt.Type] = true
	}
	for _, want := range []string{"member.registered", "post.submitted", "reward.paid", "token.transferred"} {
		if !seen[want] {
			t.Fatalf("event %s missing from log: %+v", want, evts)
		}
	}
}

func TestEnumerationAndApprovalQueries(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, ts, "", "grumble_mintBadge", map[string]interface{}{
		"caller": memberHex,
		"id":     7,
	})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_badgeOfOwnerByIndex", map[string]interface{}{
		"owner": memberHex,
		"index": 0,
	})
	mustSucceed(t, resp)
	if fmt.Sprintf("%v", resp.Result) != "7" {
		t.Fatalf("unexpected badge at owner index: %v", resp.Result)
	}

	resp, _ = call(t, ts, "", "grumble_approveBadge", map[string]interface{}{
		"caller":  memberHex,
		"spender": strangerHex,
		"id":      7,
	})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_approvedBadgeSpender", map[string]interface{}{"id": 7})
	mustSucceed(t, resp)
	if resp.Result != strangerHex {
		t.Fatalf("unexpected approved spender: %v", resp.Result)
	}

	resp, _ = call(t, ts, "", "grumble_isBadgeOperator", map[string]string{
		"owner":    memberHex,
		"operator": strangerHex,
	})
	mustSucceed(t, resp)
	if resp.Result != false {
		t.Fatalf("operator grant not expected yet: %v", resp.Result)
	}

	resp, _ = call(t, ts, "", "grumble_setBadgeOperator", map[string]interface{}{
		"caller":   memberHex,
		"operator": strangerHex,
		"approved": true,
	})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_isBadgeOperator", map[string]string{
		"owner":    memberHex,
		"operator": strangerHex,
	})
	mustSucceed(t, resp)
	if resp.Result != true {
		t.Fatalf("operator grant not visible: %v", resp.Result)
	}

	resp, _ = call(t, ts, "", "grumble_signUp", map[string]string{"caller": memberHex})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_memberAtIndex", map[string]interface{}{"index": 0})
	mustSucceed(t, resp)
	if resp.Result != memberHex {
		t.Fatalf("unexpected member at index 0: %v", resp.Result)
	}

	resp, _ = call(t, ts, "", "grumble_memberAtIndex", map[string]interface{}{"index": 5})
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("out-of-range index should fail: err=%+v result=%v", resp.Error, resp.Result)
	}
}

func TestUnknownMethod(t *testing.T) {
	ts := newTestServer(t)
	resp, status := call(t, ts, "", "grumble_nope", nil)
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("unexpected response: status=%d err=%+v", status, resp.Error)
	}
}

func TestInvalidAddressRejected(t *testing.T) {
	ts := newTestServer(t)
	resp, status := call(t, ts, "", "grumble_signUp", map[string]string{"caller": "0x1234"})
	if status != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("unexpected response: status=%d err=%+v", status, resp.Error)
	}
}

func TestAdminMethodsRequireToken(t *testing.T) {
	ts := newTestServer(t)

	resp, status := call(t, ts, "", "grumble_pause", map[string]string{"caller": ownerHex})
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got status=%d err=%+v", status, resp.Error)
	}
	resp, status = call(t, ts, "wrong-token", "grumble_pause", map[string]string{"caller": ownerHex})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", status)
	}

	resp, _ = call(t, ts, testToken, "grumble_pause", map[string]string{"caller": ownerHex})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_paused", nil)
	mustSucceed(t, resp)
	if resp.Result != true {
		t.Fatalf("pause not visible: %v", resp.Result)
	}

	// Token alone is not enough: the caller must still be the owner.
	resp, status = call(t, ts, testToken, "grumble_unpause", map[string]string{"caller": strangerHex})
	if status != http.StatusForbidden || resp.Error == nil {
		t.Fatalf("expected owner gating, got status=%d err=%+v", status, resp.Error)
	}

	resp, _ = call(t, ts, testToken, "grumble_unpause", map[string]string{"caller": ownerHex})
	mustSucceed(t, resp)
}

func TestAdminParameterRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := call(t, ts, testToken, "grumble_setDailyRewardCap", map[string]interface{}{
		"caller": ownerHex,
		"cap":    3,
	})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_rewardParams", nil)
	mustSucceed(t, resp)
	params, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result shape: %v", resp.Result)
	}
	if fmt.Sprintf("%v", params["dailyCap"]) != "3" {
		t.Fatalf("cap not applied: %v", params)
	}
}

func TestBatchSignUpOverRPC(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := call(t, ts, testToken, "grumble_batchSignUp", map[string]interface{}{
		"caller":    ownerHex,
		"addresses": []string{memberHex, strangerHex},
	})
	mustSucceed(t, resp)

	resp, _ = call(t, ts, "", "grumble_totalUsers", nil)
	mustSucceed(t, resp)
	if fmt.Sprintf("%v", resp.Result) != "2" {
		t.Fatalf("unexpected user count: %v", resp.Result)
	}
}
