package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// RankModulePrefix 排名模块
	RankModulePrefix = "rank"
	// JobModulePrefix 岗位模块
	JobModulePrefix = "job"

	// EntityResult 排名结果实体
	EntityResult = "result"
	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeyRankResult 岗位排名结果缓存 (STRING, JSON序列化)
	// 格式: app:rank:result:{jobID}
	KeyRankResult = AppPrefix + ":" + RankModulePrefix + ":" + EntityResult + ":%s"

	// KeyRankLock 排名请求分布式锁 (STRING)
	// 格式: app:rank:lock:{jobID}
	KeyRankLock = AppPrefix + ":" + RankModulePrefix + ":" + EntityLock + ":%s"
)
