package core

// EntityType 是目录中实体的类型。每种类型有独立的推荐策略
// （是否启用、结果上限、相似度下限）。
type EntityType string

const (
	EntityDigital  EntityType = "digital"
	EntityPhysical EntityType = "physical"
	EntityService  EntityType = "service"
	EntityCourse   EntityType = "course"
	EntityArtist   EntityType = "artist"
)

// EntityTypes 是全部合法类型，顺序固定，供配置校验与遍历使用。
var EntityTypes = []EntityType{
	EntityDigital,
	EntityPhysical,
	EntityService,
	EntityCourse,
	EntityArtist,
}

func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RecommendTarget 标识本次推荐"为谁/为什么东西"：被浏览的商品或某个用户。
// 每个请求构造一次，之后不可变。
// UserID 可选：存在时才会产生协同/行为类个性化信号。
// Category/Tags/Price/StoreID 是调用方已知的上下文属性，
// 缺省时引擎会从目录取一次完整属性补齐。
type RecommendTarget struct {
	EntityID   string
	EntityType EntityType
	UserID     string
	Category   string
	Tags       []string
	Price      float64
	StoreID    string
}

// Personalized 返回该目标是否具备个性化信号的前提（有用户身份）。
func (t *RecommendTarget) Personalized() bool {
	return t != nil && t.UserID != ""
}
