package main

import (
	"videoindex-service/app"
	"videoindex-service/ddd/domain/vo"
)

func main() {
	app.Run(vo.JobTypeTranscribe)
}
