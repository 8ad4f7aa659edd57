// Package slots 实现服务端槽位表
//
// 槽位是服务端按客户端身份划分的固定容量索引。每个槽位最多绑定一个活跃连接，
// 并记录最近一次认领时观察到的对端 IP。
//
// # 认领规则
//
// 后到者获胜：每次有效认领都会取代当前占用者，不做协商。
// 认领是一个原子单元（Table.Claim）：
//
//  1. 槽位无记录或记录 IP 与新 IP 不同时，先在新连接上发送通知
//  2. 通知失败则中止认领，槽位保持不变
//  3. 关闭不同于新连接的旧占用者
//  4. 绑定新连接并记录 IP
//
// 同一连接重复认领保持绑定，不会自我驱逐，IP 未变时也不会重复通知。
// 槽位一经创建，在表关闭前不会被移除；旧占用者断开后仍保留其 IP，
// 因此同一 IP 的重连不会触发通知。
package slots
