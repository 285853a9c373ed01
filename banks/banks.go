// Package banks holds the NAPAS member bank directory used to resolve BINs.
package banks

import (
	"sort"
	"strings"
	"sync"
)

// Bank is a NAPAS member bank.
type Bank struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	BIN       string `json:"bin"`
	ShortName string `json:"shortName"`
	Logo      string `json:"logo,omitempty"`
}

// Builtin is the directory shipped with the service.
var Builtin = []Bank{
	{ID: 17, Name: "Ngân hàng TMCP Công thương Việt Nam", Code: "ICB", BIN: "970415", ShortName: "VietinBank"},
	{ID: 43, Name: "Ngân hàng TMCP Ngoại Thương Việt Nam", Code: "VCB", BIN: "970436", ShortName: "Vietcombank"},
	{ID: 21, Name: "Ngân hàng TMCP Quân Đội", Code: "MB", BIN: "970422", ShortName: "MBBank"},
	{ID: 2, Name: "Ngân hàng TMCP Kỹ thương Việt Nam", Code: "TCB", BIN: "970407", ShortName: "Techcombank"},
	{ID: 4, Name: "Ngân hàng TMCP Á Châu", Code: "ACB", BIN: "970416", ShortName: "ACB"},
	{ID: 26, Name: "Ngân hàng TMCP Việt Nam Thịnh Vượng", Code: "VPB", BIN: "970432", ShortName: "VPBank"},
	{ID: 25, Name: "Ngân hàng TMCP Tiên Phong", Code: "TPB", BIN: "970423", ShortName: "TPBank"},
	{ID: 38, Name: "Ngân hàng TMCP Sài Gòn Thương Tín", Code: "STB", BIN: "970403", ShortName: "Sacombank"},
	{ID: 8, Name: "Ngân hàng TMCP Nam Á", Code: "NAB", BIN: "970428", ShortName: "NamABank"},
	{ID: 30, Name: "Ngân hàng TMCP Bản Việt", Code: "VCCB", BIN: "970454", ShortName: "VietCapitalBank"},
	{ID: 6, Name: "Ngân hàng TMCP Đầu tư và Phát triển Việt Nam", Code: "BIDV", BIN: "970418", ShortName: "BIDV"},
	{ID: 24, Name: "Ngân hàng TMCP Quốc Tế Việt Nam", Code: "VIB", BIN: "970441", ShortName: "VIB"},
	{ID: 22, Name: "Ngân hàng TMCP Hàng Hải Việt Nam", Code: "MSB", BIN: "970426", ShortName: "MSB"},
	{ID: 18, Name: "Ngân hàng TMCP Kiên Long", Code: "KLB", BIN: "970452", ShortName: "KienlongBank"},
	{ID: 31, Name: "Ngân hàng TMCP Việt Á", Code: "VAB", BIN: "970427", ShortName: "VietABank"},
	{ID: 19, Name: "Ngân hàng TMCP Quốc Dân", Code: "NCB", BIN: "970419", ShortName: "NCB"},
	{ID: 10, Name: "Ngân hàng TMCP Xuất Nhập Khẩu Việt Nam", Code: "EIB", BIN: "970431", ShortName: "Eximbank"},
	{ID: 41, Name: "Ngân hàng TMCP Phương Đông", Code: "OCB", BIN: "970448", ShortName: "OCB"},
	{ID: 20, Name: "Ngân hàng TMCP Sài Gòn - Hà Nội", Code: "SHB", BIN: "970443", ShortName: "SHB"},
	{ID: 3, Name: "Ngân hàng TMCP Phát triển TP. HCM", Code: "HDB", BIN: "970437", ShortName: "HDBank"},
	{ID: 32, Name: "Ngân hàng TMCP Việt Nam Thương Tín", Code: "VIETBANK", BIN: "970433", ShortName: "VietBank"},
	{ID: 36, Name: "Ngân hàng Wooribank", Code: "WOO", BIN: "970457", ShortName: "Woori"},
	{ID: 35, Name: "Ngân hàng Shinhan Bank", Code: "SHIN", BIN: "970424", ShortName: "ShinhanBank"},
	{ID: 45, Name: "Ngân hàng United Overseas Bank", Code: "UOB", BIN: "970458", ShortName: "UOB"},
}

// Directory is a concurrency safe bank list that can be replaced at runtime.
type Directory struct {
	mu    sync.RWMutex
	banks []Bank
}

// NewDirectory creates a directory seeded with banks.
func NewDirectory(banks []Bank) *Directory {
	d := &Directory{}
	d.Replace(banks)
	return d
}

// List returns the banks sorted by short name.
func (d *Directory) List() []Bank {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Bank, len(d.banks))
	copy(out, d.banks)
	return out
}

// Lookup finds a bank by BIN or by code, ignoring case for codes.
func (d *Directory) Lookup(key string) (Bank, bool) {
	key = strings.TrimSpace(key)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, b := range d.banks {
		if b.BIN == key || strings.EqualFold(b.Code, key) {
			return b, true
		}
	}
	return Bank{}, false
}

// Replace swaps the directory contents. Empty input is ignored.
func (d *Directory) Replace(banks []Bank) {
	if len(banks) == 0 {
		return
	}
	sorted := make([]Bank, len(banks))
	copy(sorted, banks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].ShortName) < strings.ToLower(sorted[j].ShortName)
	})

	d.mu.Lock()
	d.banks = sorted
	d.mu.Unlock()
}
