package model

// ControlMode 交易结果控制模式
type ControlMode int8

const (
	ControlModeNormal ControlMode = 0 // 正常 (按市场价格结算)
	ControlModeWin    ControlMode = 1 // 强制赢
	ControlModeLose   ControlMode = 2 // 强制输
)

func (m ControlMode) String() string {
	switch m {
	case ControlModeNormal:
		return "NORMAL"
	case ControlModeWin:
		return "WIN"
	case ControlModeLose:
		return "LOSE"
	default:
		return "UNKNOWN"
	}
}

// IsValid 检查控制模式是否有效
func (m ControlMode) IsValid() bool {
	return m == ControlModeNormal || m == ControlModeWin || m == ControlModeLose
}

// OutcomePolicy 用户结果控制策略
// 每个用户至多一条生效记录; 无生效记录等价于 NORMAL
// 对应数据库表 outcome_policies
type OutcomePolicy struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string      `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Mode      ControlMode `gorm:"type:smallint;not null" json:"mode"`        // 控制模式
	IsActive  bool        `gorm:"type:boolean;index;default:true" json:"is_active"`
	AdminID   string      `gorm:"type:varchar(64)" json:"admin_id"`          // 设置人
	Notes     string      `gorm:"type:varchar(255)" json:"notes"`            // 备注
	CreatedAt int64       `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64       `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 返回表名
func (OutcomePolicy) TableName() string {
	return "outcome_policies"
}
