package model

import (
	"encoding/json"
	"testing"
)

// プロバイダープロフィールのシリアライズ・デシリアライズが恒等変換であること
func TestProfile_RoundTrip_PreservesRecognizedFields(t *testing.T) {
	original := []byte(`{"username":"octocat","displayName":"The Octocat","id":583231,"avatar_url":"https://example.com/a.png"}`)

	var p Profile
	if err := json.Unmarshal(original, &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if p.Username != "octocat" {
		t.Errorf("Username = %q, want %q", p.Username, "octocat")
	}
	if p.DisplayName != "The Octocat" {
		t.Errorf("DisplayName = %q, want %q", p.DisplayName, "The Octocat")
	}

	serialized, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var p2 Profile
	if err := json.Unmarshal(serialized, &p2); err != nil {
		t.Fatalf("second unmarshal failed: %v", err)
	}

	if p2.Username != p.Username {
		t.Errorf("round-trip Username = %q, want %q", p2.Username, p.Username)
	}
	if p2.DisplayName != p.DisplayName {
		t.Errorf("round-trip DisplayName = %q, want %q", p2.DisplayName, p.DisplayName)
	}
	if len(p2.Extra) != len(p.Extra) {
		t.Errorf("round-trip Extra has %d keys, want %d", len(p2.Extra), len(p.Extra))
	}
	if string(p2.Extra["avatar_url"]) != `"https://example.com/a.png"` {
		t.Errorf("avatar_url = %s", p2.Extra["avatar_url"])
	}
}

// プロバイダー固有の未知フィールドが失われないこと
func TestProfile_RoundTrip_PreservesExtraFields(t *testing.T) {
	original := []byte(`{"username":"u","displayName":"d","nested":{"a":[1,2,3]},"flag":true}`)

	var p Profile
	if err := json.Unmarshal(original, &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	serialized, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got, want map[string]interface{}
	if err := json.Unmarshal(serialized, &got); err != nil {
		t.Fatalf("unmarshal serialized: %v", err)
	}
	if err := json.Unmarshal(original, &want); err != nil {
		t.Fatalf("unmarshal original: %v", err)
	}

	if len(got) != len(want) {
		t.Errorf("serialized has %d keys, want %d", len(got), len(want))
	}
	if got["flag"] != true {
		t.Errorf("flag = %v, want true", got["flag"])
	}
}

// usernameが無いプロフィールでもDisplayNameにフォールバックすること
func TestProfile_DisplayUsername_FallsBackToDisplayName(t *testing.T) {
	p := &Profile{DisplayName: "Display Only"}
	if got := p.DisplayUsername(); got != "Display Only" {
		t.Errorf("DisplayUsername() = %q, want %q", got, "Display Only")
	}

	p2 := &Profile{Username: "login", DisplayName: "Display"}
	if got := p2.DisplayUsername(); got != "login" {
		t.Errorf("DisplayUsername() = %q, want %q", got, "login")
	}
}

// Profileが紐付いているセッションだけが認証済みであること
func TestSession_Authenticated(t *testing.T) {
	var nilSession *Session
	if nilSession.Authenticated() {
		t.Error("nil session should not be authenticated")
	}

	anonymous := &Session{ID: "s1"}
	if anonymous.Authenticated() {
		t.Error("session without profile should not be authenticated")
	}

	// フィールドが欠けたProfileでも存在すれば認証済みとして扱う
	bound := &Session{ID: "s2", Profile: &Profile{}}
	if !bound.Authenticated() {
		t.Error("session with profile should be authenticated")
	}
}
