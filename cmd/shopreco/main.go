// Command shopreco 是商品推荐与语义搜索的命令行入口。
package main

func main() {
	Execute()
}
