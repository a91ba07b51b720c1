package vision

// edgeGrid раскладывает бинарную маску на сетку двойного разрешения:
// чётные индексы это углы пикселей, нечётные их центры. Каждый пиксель
// объекта закрашивает свой блок 3x3, поэтому контур по центрам ячеек сетки
// проходит по краям пикселей, а соседние через один пиксель объекты не сливаются.
func edgeGrid(bin []byte, w, h int) []byte {
	gw, gh := 2*w+1, 2*h+1
	grid := make([]byte, gw*gh)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bin[y*w+x] == 0 {
				continue
			}
			for gy := 2 * y; gy <= 2*y+2; gy++ {
				row := grid[gy*gw:]
				for gx := 2 * x; gx <= 2*x+2; gx++ {
					row[gx] = 255
				}
			}
		}
	}
	return grid
}
