// Package xsession 把 avatar 缓存、分页游标、安全过滤与 feed 组装
// 组合成面向 UI 层的单个 viewer 会话。
//
// 每个 viewer 构造一个 Session，后端 xstore.Store 在构造时注入；
// 没有全局单例，也不依据环境变量切换演示与真实后端。
//
// 配置位于配置文件的 quanta 段：
//
//	quanta:
//	  avatarCacheCapacity: 100
//	  postsCacheCapacity: 500
//	  statsCacheCapacity: 200
//	  ttlMinutes: 15
//	  defaultPageSize: 20
//	  maxBackfillRounds: 3
//	  fetchTimeout: 5s
//	  log:
//	    level: info
//	    file: /var/log/quanta/session.log
package xsession
