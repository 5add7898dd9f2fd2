// Package command 格斗游戏风格的指令输入识别。
//
// 一条指令由按时间先后排列的步骤组成（按下、松开、按住蓄力、当前帧含有、当前帧不含），
// 以文本记法编写，例如：
//
//	h4(60)[10] > p6[10] > pC[10]
//
// 表示"后方向蓄力 60 帧，10 帧内推前，再 10 帧内按 C"。
//
// Parse 将记法编译为不可变的 Command；Command.Judge 对调用方持有的逐帧输入历史
// （最旧在前）做一次从新到旧的单遍扫描，返回是否成立。判定从不返回错误。
package command
