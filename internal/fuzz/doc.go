
// Package fuzztests houses Go fuzz harnesses for the lexer. Its goal is to smoke
// test robustness: no panics, no hangs, and identical results from the buffer
// and stream sources on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые прогоняют байты через лексер.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lexer, internal/diag.

package fuzztests
