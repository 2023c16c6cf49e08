package model

// Selection 选择结果, Account为空表示未选中, Reason说明原因
type Selection struct {
	Account  *Account `json:"account,omitempty"`    // 选中账号
	Source   string   `json:"source,omitempty"`     // 来源[legacy_binding, affinity, legacy_score, group, pool]
	GroupId  string   `json:"group_id,omitempty"`   // 分组ID
	ApiKeyId string   `json:"api_key_id,omitempty"` // 分组成员密钥ID
	Reason   string   `json:"reason,omitempty"`     // 未选中原因
	// 按模型过滤后无候选账号
	ModelFiltered bool `json:"model_filtered,omitempty"`
}

func NewSelection(account *Account, source string) *Selection {
	return &Selection{
		Account: account,
		Source:  source,
	}
}

func NoSelection(reason string) *Selection {
	return &Selection{
		Reason: reason,
	}
}

func (s *Selection) Found() bool {
	return s != nil && s.Account != nil
}
