// Package storageopt 是 pkg/storage 下各后端（xmongo、xrelation）共享的小工具：
//
//   - 健康检查超时
//   - 健康检查与慢查询计数器
//   - 慢查询检测器
//
// 本包是 internal 包，外部不应直接导入。
package storageopt
