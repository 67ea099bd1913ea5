// Package social 提供信息流客户端核心的子包。
//
// 子包列表（自底向上）：
//   - xstore: 后端接口、领域类型、内存实现与容错包装
//   - xpage: 按 (viewer, 范围) 的分页游标与加载互斥
//   - xavatar: avatar 资料、帖子与统计的三级缓存
//   - xsafety: 屏蔽与静音过滤，过期静音的定时清理
//   - xfeed: 组装一页信息流，过滤后补齐短页
//   - xsession: 一个 viewer 的会话，组合以上组件并从配置构建
package social
