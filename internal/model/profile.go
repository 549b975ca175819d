package model

import "encoding/json"

// Profile は外部プロバイダーから取得した認証済みプリンシパルを表す。
// UsernameとDisplayNameを認識済みフィールドとして持ち、
// それ以外のプロバイダー固有フィールドはExtraにそのまま保持する。
// シリアライズ・デシリアライズで内容が変化しないこと（恒等変換）を保証する。
type Profile struct {
	Username    string
	DisplayName string
	Extra       map[string]json.RawMessage
}

// DisplayUsername は表示用のユーザー名を返す。
// Usernameが空の場合はDisplayNameにフォールバックする。
func (p *Profile) DisplayUsername() string {
	if p.Username != "" {
		return p.Username
	}
	return p.DisplayName
}

// profileKeyの認識済みJSONキー。
const (
	profileKeyUsername    = "username"
	profileKeyDisplayName = "displayName"
)

// MarshalJSON は認識済みフィールドとExtraをひとつのJSONオブジェクトに合成する。
func (p *Profile) MarshalJSON() ([]byte, error) {
	merged := make(map[string]json.RawMessage, len(p.Extra)+2)
	for k, v := range p.Extra {
		merged[k] = v
	}

	username, err := json.Marshal(p.Username)
	if err != nil {
		return nil, err
	}
	merged[profileKeyUsername] = username

	displayName, err := json.Marshal(p.DisplayName)
	if err != nil {
		return nil, err
	}
	merged[profileKeyDisplayName] = displayName

	return json.Marshal(merged)
}

// UnmarshalJSON はJSONオブジェクトから認識済みフィールドを取り出し、
// 残りのキーをExtraに保持する。
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[profileKeyUsername]; ok {
		// 文字列以外の値はExtra扱いとし、認識済みフィールドは空のままにする
		if err := json.Unmarshal(v, &p.Username); err == nil {
			delete(raw, profileKeyUsername)
		}
	}
	if v, ok := raw[profileKeyDisplayName]; ok {
		if err := json.Unmarshal(v, &p.DisplayName); err == nil {
			delete(raw, profileKeyDisplayName)
		}
	}

	p.Extra = raw
	return nil
}
